package config

const (
	defaultBaseDir    = "~/.local/share/proctor"
	defaultLogDir     = "~/.local/share/proctor/logs"
	defaultCascadeDir = "~/.local/share/proctor/cascades"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"

	// Movement thresholds are tuned for 24 fps sources analyzed at fps/3.
	defaultFrameSampleInterval   = 3
	defaultDetailSampleInterval  = 10
	defaultFaceMovementThreshold = 25.0
	defaultEyeMovementThreshold  = 18.0
	defaultMaxFrameWidth         = 640
	defaultMaxSuspiciousEvents   = 20
	defaultCheatingThreshold     = 30.0

	defaultIntegrityWeight = 0.30
	defaultContentWeight   = 0.40
	defaultDeliveryWeight  = 0.20
	defaultVocalWeight     = 0.10

	defaultPollInterval       = 5
	defaultErrorRetryInterval = 10
	defaultWorkers            = 2
	defaultAudioTimeout       = 1800
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BaseDir:    defaultBaseDir,
			LogDir:     defaultLogDir,
			CascadeDir: defaultCascadeDir,
		},
		Analysis: Analysis{
			FrameSampleInterval:   defaultFrameSampleInterval,
			DetailSampleInterval:  defaultDetailSampleInterval,
			FaceMovementThreshold: defaultFaceMovementThreshold,
			EyeMovementThreshold:  defaultEyeMovementThreshold,
			MaxFrameWidth:         defaultMaxFrameWidth,
			MaxSuspiciousEvents:   defaultMaxSuspiciousEvents,
			CheatingThreshold:     defaultCheatingThreshold,
		},
		Scoring: Scoring{
			IntegrityWeight: defaultIntegrityWeight,
			ContentWeight:   defaultContentWeight,
			DeliveryWeight:  defaultDeliveryWeight,
			VocalWeight:     defaultVocalWeight,
		},
		Audio: Audio{
			Enabled:        true,
			TimeoutSeconds: defaultAudioTimeout,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			Workers:            defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
