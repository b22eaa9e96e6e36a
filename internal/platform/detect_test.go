package platform

import (
	"context"
	"runtime"
	"testing"
)

// MockDetector is a test implementation of Detector.
type MockDetector struct {
	info *Info
	err  error
}

// NewMockDetector creates a mock detector with specified return values.
func NewMockDetector(info *Info, err error) Detector {
	return &MockDetector{info: info, err: err}
}

// Detect returns the pre-configured info and error.
func (m *MockDetector) Detect(ctx context.Context) (*Info, error) {
	return m.info, m.err
}

func TestRealDetector_Detect(t *testing.T) {
	info, err := NewDetector().Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if info.OS != runtime.GOOS {
		t.Errorf("OS = %v, want %v", info.OS, runtime.GOOS)
	}
	if info.Arch == "" {
		t.Error("Arch should not be empty")
	}

	if runtime.GOOS == "linux" {
		// Platform may be empty (graceful fallback); when set, Family is too
		if info.Platform != "" && info.Family == "" {
			t.Error("Family should be set when Platform is set")
		}
	} else if info.Platform != "" || info.Family != "" || info.Version != "" {
		t.Errorf("distro fields should be empty on %s: %+v", runtime.GOOS, info)
	}
}

func TestRealDetector_CancelledContext(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("distro detection only runs on Linux")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// gopsutil may answer from a cache without looking at ctx; either a
	// result or a cancellation error is acceptable, a panic is not.
	info, err := NewDetector().Detect(ctx)
	if err == nil && info == nil {
		t.Error("Detect() returned neither info nor error")
	}
}

func TestInfo_GetDistro(t *testing.T) {
	tests := []struct {
		name string
		info *Info
		want *Distro
	}{
		{
			name: "Linux with distro info",
			info: &Info{OS: "linux", Platform: "steamos", Family: FamilyArch, Version: "3.5"},
			want: &Distro{ID: "steamos", Family: FamilyArch, Version: "3.5"},
		},
		{
			name: "Linux without distro info",
			info: &Info{OS: "linux"},
		},
		{
			name: "Windows",
			info: &Info{OS: "windows", Platform: "ignored"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.info.GetDistro()
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("GetDistro() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("GetDistro() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfo_OSPredicates(t *testing.T) {
	tests := []struct {
		info                             Info
		linux, macos, windows, steamDeck bool
	}{
		{info: Info{OS: "linux", Platform: "ubuntu"}, linux: true},
		{info: Info{OS: "linux", Platform: "steamos"}, linux: true, steamDeck: true},
		{info: Info{OS: "darwin"}, macos: true},
		{info: Info{OS: "windows"}, windows: true},
	}

	for _, tt := range tests {
		t.Run(tt.info.OS+"/"+tt.info.Platform, func(t *testing.T) {
			if got := tt.info.IsLinux(); got != tt.linux {
				t.Errorf("IsLinux() = %v", got)
			}
			if got := tt.info.IsMacOS(); got != tt.macos {
				t.Errorf("IsMacOS() = %v", got)
			}
			if got := tt.info.IsWindows(); got != tt.windows {
				t.Errorf("IsWindows() = %v", got)
			}
			if got := tt.info.IsSteamDeck(); got != tt.steamDeck {
				t.Errorf("IsSteamDeck() = %v", got)
			}
		})
	}
}

func TestInfo_DefaultGameDir(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{
			name: "windows",
			info: Info{OS: "windows"},
			want: `C:\Program Files (x86)\Steam\steamapps\common\Ori DE`,
		},
		{
			name: "linux",
			info: Info{OS: "linux", Home: "/home/deck"},
			want: "/home/deck/.local/share/Steam/steamapps/common/Ori DE",
		},
		{
			name: "macos",
			info: Info{OS: "darwin", Home: "/Users/ori"},
			want: "/Users/ori/Library/Application Support/Steam/steamapps/common/Ori DE",
		},
		{
			name: "linux without home",
			info: Info{OS: "linux"},
			want: "",
		},
		{
			name: "other",
			info: Info{OS: "plan9", Home: "/usr/glenda"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.DefaultGameDir(); got != tt.want {
				t.Errorf("DefaultGameDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
