// Package vision detects faces and eyes in individual video frames and tracks
// their movement across consecutive frames.
//
// Detection is pluggable behind the Detector interface; the default
// implementation runs pigo cascades (face localization plus pupil
// localization). Tracking state is an explicit value passed into and returned
// from AnalyzeFrame, so a tracker is trivially testable frame by frame and
// concurrent sessions never share mutable state.
//
// Absence of a face, or of a stereo eye pair, is treated as evidence of
// looking away rather than as missing data. That conservative bias is part of
// the scoring contract and must be preserved.
package vision
