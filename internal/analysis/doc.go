// Package analysis post-processes recorded runs.
//
//   - [MSD]: mean squared displacement of unwrapped frames from the first
//   - [WindowedMSD]: origin-averaged MSD for evenly spaced frames
//   - [Diffusion]: self-diffusion coefficient from the long-time MSD slope
//   - [PowerSpectrum]: one-sided power spectrum of a thermo series
//   - [Scatter]: ASCII scatter plots of one observable against another
//
// Log-sampled trajectories give MSD over several decades of lag time from a
// single origin:
//
//	frames, _ := trajectory.ReadAll("traj.xyz")
//	curve, _ := analysis.MSD(frames, "A")
//	D := analysis.Diffusion(curve)
package analysis
