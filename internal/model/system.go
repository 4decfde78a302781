package model

// VersionInfo contains version and feature information for the application.
// AlgorithmVersion is the computation semantics token; it is part of every
// result cache key so a semantics change can never serve stale results.
type VersionInfo struct {
	AppVersion       string          `json:"app_version"`
	AlgorithmVersion string          `json:"algorithm_version"`
	DbVersion        string          `json:"db_version"`
	Features         map[string]bool `json:"features"`
}
