package resource

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type recordingFetcher struct {
	name string
	got  []string
}

func (f *recordingFetcher) Fetch(_ context.Context, url string) (*Resource, error) {
	f.got = append(f.got, url)
	return &Resource{File: url, Content: []byte(f.name)}, nil
}

func TestDispatcher_Fetch(t *testing.T) {
	local := &recordingFetcher{name: "local"}
	remote := &recordingFetcher{name: "remote"}
	d := NewDispatcher(local, remote, zap.NewNop())

	tests := []struct {
		url  string
		want string
	}{
		{"/var/www/css/main.css", "local"},
		{"css/main.css", "local"},
		{"http://example.com/a.css", "remote"},
		{"HTTPS://example.com/a.css", "remote"},
	}
	for _, tt := range tests {
		res, err := d.Fetch(context.Background(), tt.url)
		if err != nil {
			t.Errorf("Fetch(%q): %v", tt.url, err)
			continue
		}
		if string(res.Content) != tt.want {
			t.Errorf("Fetch(%q) routed to %s, want %s", tt.url, res.Content, tt.want)
		}
	}
	if len(local.got) != 2 || len(remote.got) != 2 {
		t.Errorf("unexpected routing: local=%q remote=%q", local.got, remote.got)
	}
}

func TestDispatcher_Unsupported(t *testing.T) {
	d := NewDispatcher(&recordingFetcher{}, nil, nil)

	tests := []struct {
		url  string
		want string
	}{
		{"data:text/css,a{}", "unsupported location"},
		{"ftp://example.com/a.css", "unsupported location"},
		{"https://example.com/a.css", "no fetcher configured"},
	}
	for _, tt := range tests {
		_, err := d.Fetch(context.Background(), tt.url)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Fetch(%q): expected error containing %q, got %v", tt.url, tt.want, err)
		}
	}
}
