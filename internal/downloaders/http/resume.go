package siphonhttp

import "os"

// ResumeState is the outcome of probing a part file before a download pass:
// either a fresh start or a resume from Offset bytes already on disk.
type ResumeState struct {
	Resumed bool
	Offset  int64
}

// probePartFile measures an existing part file. Resume is best effort: any
// failure to stat the path reports a fresh start rather than an error.
func probePartFile(path string) ResumeState {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ResumeState{}
	}
	return ResumeState{Resumed: true, Offset: info.Size()}
}
