package services

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"pcdash/internal/models"
)

var cardPattern = regexp.MustCompile(`^card[0-9]+$`)

// GPUReader reads the first DRM card exposed under <root>/class/drm.
// Only drivers that publish gpu_busy_percent or mem_info_vram_* (amdgpu and
// friends) produce usage; other cards still report a name.
type GPUReader struct {
	root string
}

func NewGPUReader(sysfsRoot string) *GPUReader {
	return &GPUReader{root: sysfsRoot}
}

// Read returns stats for the first card, or ErrNoGPU when there is none.
func (r *GPUReader) Read() (*models.GPUStats, error) {
	cards := r.detect()
	if len(cards) == 0 {
		return nil, ErrNoGPU
	}

	card := cards[0]
	device := filepath.Join(r.drmDir(), card, "device")

	stats := &models.GPUStats{
		Card: card,
		Name: readGPUName(device),
	}

	if v, ok := readFloat(filepath.Join(device, "gpu_busy_percent")); ok {
		stats.UtilizationPercent = v
		stats.HasUtilization = true
	}

	total, okTotal := readFloat(filepath.Join(device, "mem_info_vram_total"))
	used, okUsed := readFloat(filepath.Join(device, "mem_info_vram_used"))
	if okTotal && okUsed {
		stats.MemoryTotalMB = total / (1024 * 1024)
		stats.MemoryUsedMB = used / (1024 * 1024)
	}

	stats.TemperatureC = readGPUTemperature(device)
	return stats, nil
}

// GPUSample is the value charted for a GPU reading: utilization when the driver
// reports it, VRAM usage otherwise.
func GPUSample(stats *models.GPUStats) float64 {
	if stats == nil {
		return 0
	}
	if stats.HasUtilization {
		return stats.UtilizationPercent
	}
	return stats.MemoryPercent()
}

func (r *GPUReader) drmDir() string {
	return filepath.Join(r.root, "class", "drm")
}

func (r *GPUReader) detect() []string {
	entries, err := os.ReadDir(r.drmDir())
	if err != nil {
		return nil
	}

	var cards []string
	for _, e := range entries {
		if cardPattern.MatchString(e.Name()) {
			cards = append(cards, e.Name())
		}
	}
	sort.Slice(cards, func(i, j int) bool {
		return cardIndex(cards[i]) < cardIndex(cards[j])
	})
	return cards
}

// cardIndex returns the number of a "cardN" entry.
func cardIndex(name string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(name, "card"))
	return n
}

func readGPUName(device string) string {
	if b, err := os.ReadFile(filepath.Join(device, "product_name")); err == nil {
		if name := strings.TrimSpace(string(b)); name != "" {
			return name
		}
	}

	vendor := "Unknown"
	if b, err := os.ReadFile(filepath.Join(device, "vendor")); err == nil {
		switch strings.TrimSpace(string(b)) {
		case "0x1002":
			vendor = "AMD"
		case "0x10de":
			vendor = "NVIDIA"
		case "0x8086":
			vendor = "Intel"
		}
	}
	if b, err := os.ReadFile(filepath.Join(device, "device")); err == nil {
		return vendor + " " + strings.TrimSpace(string(b))
	}
	return vendor + " GPU"
}

func readGPUTemperature(device string) float64 {
	hwmonRoot := filepath.Join(device, "hwmon")
	hwmons, _ := os.ReadDir(hwmonRoot)
	for _, hw := range hwmons {
		if v, ok := readFloat(filepath.Join(hwmonRoot, hw.Name(), "temp1_input")); ok {
			return v / 1000
		}
	}
	return 0
}

func readFloat(path string) (float64, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
