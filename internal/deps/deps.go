package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is an external binary speechline may call.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Optional binaries only limit which inputs can be read.
	Optional bool
}

// Status is the result of looking a Requirement up on PATH.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// AudioRequirements lists the decoders for non-WAV input.
func AudioRequirements(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "Decodes non-WAV audio to 16 kHz mono PCM", Optional: true},
		{Name: "FFprobe", Command: ffprobe, Description: "Inspects non-WAV inputs for audio streams", Optional: true},
	}
}

// CheckBinaries resolves every requirement with exec.LookPath.
func CheckBinaries(reqs []Requirement) []Status {
	out := make([]Status, len(reqs))
	for i, req := range reqs {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		out[i] = lookup(req)
	}
	return out
}

func lookup(req Requirement) Status {
	s := Status{Requirement: req}
	if req.Command == "" {
		s.Detail = "command not configured"
		return s
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		s.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return s
	}
	s.Available, s.Path = true, path
	return s
}

// MissingRequired filters statuses to unavailable, non-optional entries.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
