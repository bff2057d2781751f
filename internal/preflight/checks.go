package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"dualsub/internal/deps"
	"dualsub/internal/language"
	"dualsub/internal/services"
	"dualsub/internal/translation"
)

// Pinger is implemented by the HTTP model clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckEndpoint verifies that a model server answers. It makes a single
// attempt bounded by endpointTimeout.
func CheckEndpoint(ctx context.Context, name, baseURL string, client Pinger) Result {
	if strings.TrimSpace(baseURL) == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, endpointTimeout)
	defer cancel()

	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", baseURL, summarizeEndpointError(err))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", baseURL)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckParentAccess checks the directory that will hold the file at path.
func CheckParentAccess(name, path string) Result {
	result := CheckDirectoryAccess(name, filepath.Dir(path))
	if result.Passed {
		result.Detail = fmt.Sprintf("%s (writable)", path)
	}
	return result
}

// CheckTokenizers verifies the highquality engine's tokenizer resources.
// An auto source cannot be checked until the language is detected.
func CheckTokenizers(dir, source, target string) Result {
	const name = "Tokenizers"
	checker := translation.TokenizerDir(dir)
	var missing []string
	for _, code := range []string{source, target} {
		base := language.Base(code)
		if base == "" || base == language.Auto {
			continue
		}
		if err := checker.Check(base); err != nil {
			if errors.Is(err, services.ErrMissingResource) {
				missing = append(missing, base)
				continue
			}
			return Result{Name: name, Detail: err.Error()}
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (missing: %s)", dir, strings.Join(missing, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: dir}
}

// FromDeps converts binary statuses into preflight results.
func FromDeps(statuses []deps.Status) []Result {
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		detail := status.Detail
		if status.Available {
			detail = status.Command
			if status.Version != "" {
				detail = fmt.Sprintf("%s (%s)", status.Command, status.Version)
			}
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   detail,
			Optional: status.Optional,
		})
	}
	return results
}

func summarizeEndpointError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "unreachable"
	}
	return err.Error()
}
