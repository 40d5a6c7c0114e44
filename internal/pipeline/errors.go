package pipeline

import "errors"

// Fatal failures. They abort the pipeline without producing a result.
var (
	ErrBinNotFound       = errors.New("bin not found")
	ErrBinLookup         = errors.New("bin lookup failed")
	ErrClassifierFailure = errors.New("classifier failure")
)

// Denial reasons carried by EvaluationResult.DenialReason.
const (
	ReasonOutOfRange  = "Not within range of the selected bin"
	ReasonPoorQuality = "Poor image quality (too blurry)"
	ReasonNotWaste    = "Not valid e-waste"
)
