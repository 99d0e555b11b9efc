// Package catalog performs the one-shot startup load of trackable objects
// from a TLE source (local file or HTTP URL).
package catalog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/signalsfoundry/telemetry-harvester/model"
)

// Entry pairs a tracked object with the TLE line pair that the ephemeris
// uses as its opaque propagation handle.
type Entry struct {
	Object model.TrackedObject
	Line1  string
	Line2  string
}

// LoadError wraps any failure during the startup catalog load. It is fatal:
// the process must not run without at least one trackable object.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog: load from %q: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load fetches and parses the catalog. Sources beginning with http:// or
// https:// are fetched over HTTP; anything else is treated as a file path.
// When maxObjects > 0 only the first maxObjects entries are kept.
func Load(ctx context.Context, source string, maxObjects int) ([]Entry, error) {
	r, err := open(ctx, source)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	defer r.Close()

	entries, err := Parse(r, maxObjects)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return entries, nil
}

func open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return resp.Body, nil
	}
	return os.Open(source)
}

// Parse reads three-line TLE groups (name line, then lines starting "1 "
// and "2 ") until EOF. An input yielding zero entries is an error.
func Parse(r io.Reader, maxObjects int) ([]Entry, error) {
	scanner := bufio.NewScanner(r)

	var entries []Entry
	var name string
	var line1 string

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "1 "):
			line1 = line
		case strings.HasPrefix(line, "2 "):
			if line1 == "" {
				return nil, fmt.Errorf("TLE line 2 without a preceding line 1: %q", line)
			}
			id, err := satnum(line1)
			if err != nil {
				return nil, err
			}
			if name == "" {
				name = fmt.Sprintf("OBJECT %d", id)
			}
			entries = append(entries, Entry{
				Object: model.TrackedObject{ID: id, Name: name},
				Line1:  line1,
				Line2:  line,
			})
			name, line1 = "", ""
			if maxObjects > 0 && len(entries) >= maxObjects {
				return entries, nil
			}
		default:
			name = strings.TrimSpace(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no TLE entries found")
	}
	return entries, nil
}

// satnum extracts the catalog number from columns 3-7 of TLE line 1.
func satnum(line1 string) (uint32, error) {
	if len(line1) < 7 {
		return 0, fmt.Errorf("TLE line 1 too short: %q", line1)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(line1[2:7]), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse catalog number from %q: %w", line1, err)
	}
	return uint32(n), nil
}
