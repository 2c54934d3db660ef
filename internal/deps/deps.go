package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary lectern relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckMergeTool reports the merge binary's availability with version detail
// so the user sees which ffmpeg a merge would run.
func CheckMergeTool(ctx context.Context, binary string) Status {
	status := Status{
		Name:        "FFmpeg",
		Command:     strings.TrimSpace(binary),
		Description: "Merges video and audio fragments",
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Command = resolved
	status.Available = true

	out, err := exec.CommandContext(ctx, resolved, "-version").Output()
	if err != nil {
		// Present but not runnable; keep Available so callers distinguish a
		// lookup miss from a broken install via Detail.
		status.Detail = fmt.Sprintf("version probe failed: %v", err)
		return status
	}
	if line, _, found := strings.Cut(string(out), "\n"); found || line != "" {
		status.Detail = strings.TrimSpace(line)
	}
	return status
}

// DownloaderRequirement describes the external fetch tool.
func DownloaderRequirement(binary string) Requirement {
	return Requirement{
		Name:        "yt-dlp",
		Command:     binary,
		Description: "Fetches recording media streams",
	}
}
