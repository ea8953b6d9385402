// Package frames decodes a recorded video into a forward-only stream of
// grayscale frames by piping ffmpeg rawvideo output.
//
// A Source is single-use: frames arrive strictly in order, only the current
// frame is buffered, and a second pass requires reopening the artifact. The
// frame image buffer is reused between calls to Next; callers that need to
// retain pixels must copy them.
package frames
