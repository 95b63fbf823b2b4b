package enums

import "fmt"

// PackageKind identifies which installer artifact a job produces.
type PackageKind string

const (
	PackageKindAndroidAPK PackageKind = "android_apk"
	PackageKindDesktopZip PackageKind = "desktop_zip"
)

var validPackageKinds = []PackageKind{
	PackageKindAndroidAPK,
	PackageKindDesktopZip,
}

// String implements fmt.Stringer.
func (k PackageKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known PackageKind.
func (k PackageKind) IsValid() bool {
	for _, candidate := range validPackageKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParsePackageKind converts raw input into a PackageKind.
func ParsePackageKind(value string) (PackageKind, error) {
	for _, candidate := range validPackageKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid package kind %q", value)
}

// PackageJobStatus is the generation job lifecycle streamed over SSE.
type PackageJobStatus string

const (
	PackageJobStatusQueued    PackageJobStatus = "queued"
	PackageJobStatusRunning   PackageJobStatus = "running"
	PackageJobStatusCompleted PackageJobStatus = "completed"
	PackageJobStatusFailed    PackageJobStatus = "failed"
)

// String implements fmt.Stringer.
func (s PackageJobStatus) String() string {
	return string(s)
}

// Terminal reports whether the status ends the SSE stream.
func (s PackageJobStatus) Terminal() bool {
	return s == PackageJobStatusCompleted || s == PackageJobStatusFailed
}
