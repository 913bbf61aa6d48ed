//go:build !linux && !darwin && !windows

package permissions

func checkMicrophone() Status { return Authorized }

func requestMicrophone() (bool, error) { return true, nil }

func remediationSteps() []string { return nil }
