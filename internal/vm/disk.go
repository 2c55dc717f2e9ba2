package vm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// DiskInfo describes usage of the VM's persistent disk.
type DiskInfo struct {
	TotalKB    uint64
	UsedKB     uint64
	FreeKB     uint64
	UsePercent string
}

func (d DiskInfo) String() string {
	return fmt.Sprintf("Usage: %s\nTotal Size: %s\nUsed: %s\nFree: %s",
		d.UsePercent,
		humanize.IBytes(d.TotalKB*1024),
		humanize.IBytes(d.UsedKB*1024),
		humanize.IBytes(d.FreeKB*1024),
	)
}

// DiskInfo reports usage of the VM's persistent disk backing /mnt/sda1.
func (p *Provisioner) DiskInfo(ctx context.Context) (DiskInfo, error) {
	out, err := p.runOnVM(ctx, "df /mnt/sda1 | grep /dev/sda1")
	if err != nil {
		return DiskInfo{}, err
	}

	line, _, _ := strings.Cut(out, "\n")

	return parseDFLine(line)
}

// parseDFLine parses one 1K-blocks df output line:
// filesystem total used free use% mountpoint.
func parseDFLine(line string) (DiskInfo, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return DiskInfo{}, fmt.Errorf("unexpected df output %q", line)
	}

	ret := DiskInfo{UsePercent: fields[4]}

	values := []*uint64{&ret.TotalKB, &ret.UsedKB, &ret.FreeKB}
	for i, target := range values {
		parsed, err := strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			return DiskInfo{}, fmt.Errorf("failed to parse df field %q: %w", fields[i+1], err)
		}

		*target = parsed
	}

	return ret, nil
}
