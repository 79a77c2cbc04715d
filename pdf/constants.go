package pdf

const (
	// DefaultQuality is the image quality used when none is configured
	DefaultQuality = 50

	// MinQuality and MaxQuality bound the encoder quality parameter
	MinQuality = 1
	MaxQuality = 100

	// ResamplingTolerance is how far an image may exceed the configured
	// resolution cap before it gets downsampled (20%)
	ResamplingTolerance = 1.2

	// PointsPerInch converts page points to inches for PPI math
	PointsPerInch = 72.0
)
