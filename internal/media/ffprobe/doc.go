// Package ffprobe shells out to ffprobe and exposes the container metadata
// the frame decoder needs: stream layout, dimensions, frame rate, and frame
// counts.
package ffprobe
