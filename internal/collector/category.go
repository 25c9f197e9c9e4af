package collector

import (
	"fmt"
	"strings"
)

// Category selects one group of sar statistics to include in the sadf output.
type Category int

const (
	Paging Category = iota
	IO
	BlockDevices
	NetworkDevices
	AllCPUs
	CPUUtilization
	SchedulerQueue
	Tasks
	MemoryStats
	MemoryUtilization
	SwapStats
	SwapUtilization
)

type categoryInfo struct {
	name string
	flag string
	arg  string
}

// categoryTable holds the sar flag (and optional flag argument) for each category.
var categoryTable = [...]categoryInfo{
	Paging:            {"paging", "-B", ""},
	IO:                {"io", "-b", ""},
	BlockDevices:      {"block", "-d", ""},
	NetworkDevices:    {"network", "-n", "DEV,EDEV"},
	AllCPUs:           {"cpu-all", "-P", "ALL"},
	CPUUtilization:    {"cpu", "-u", ""},
	SchedulerQueue:    {"queue", "-q", ""},
	Tasks:             {"tasks", "-w", ""},
	MemoryStats:       {"memory-stats", "-R", ""},
	MemoryUtilization: {"memory", "-r", ""},
	SwapStats:         {"swap-stats", "-W", ""},
	SwapUtilization:   {"swap", "-S", ""},
}

// DefaultCategories returns every category in the fixed order used on the
// sadf command line.
func DefaultCategories() []Category {
	out := make([]Category, len(categoryTable))
	for i := range categoryTable {
		out[i] = Category(i)
	}
	return out
}

// ParseCategory maps a configuration name such as "network" to its Category.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, info := range categoryTable {
		if info.name == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", name)
}

// ParseCategories parses a list of category names, preserving order.
func ParseCategories(names []string) ([]Category, error) {
	out := make([]Category, 0, len(names))
	for _, n := range names {
		c, err := ParseCategory(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (c Category) valid() bool { return c >= 0 && int(c) < len(categoryTable) }

// String returns the configuration name of the category.
func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryTable[c].name
}

// Args returns the sar arguments that select this category.
func (c Category) Args() []string {
	if !c.valid() {
		return nil
	}
	info := categoryTable[c]
	if info.arg == "" {
		return []string{info.flag}
	}
	return []string{info.flag, info.arg}
}
