package velocity

import "errors"

// Sentinel errors for pipeline configuration.
var (
	// ErrNoSelection is returned when neither explicit gene names nor a
	// valid grouping key is supplied, or when none of the requested genes
	// exist in the dataset.
	ErrNoSelection = errors.New("no var names or groups specified")

	// ErrNoRanker is returned when group-ranking selection is requested but
	// no ranking collaborator is configured.
	ErrNoRanker = errors.New("group selection requires a ranker")

	// ErrNoMoments is returned when stochastic mode is requested but no
	// moment estimator is configured.
	ErrNoMoments = errors.New("stochastic mode requires a moment estimator")
)
