package lvm

import (
	"encoding/json"
	"fmt"
)

// lvm2 reports every field as a string, numeric or not.
type lvRecord struct {
	Name   string `json:"lv_name"`
	VGName string `json:"vg_name"`
	Attr   string `json:"lv_attr"`
	Size   string `json:"lv_size"`
	Time   string `json:"lv_time"`
	Origin string `json:"origin"`
	Path   string `json:"lv_path"`
}

type vgRecord struct {
	Name string `json:"vg_name"`
	Size string `json:"vg_size"`
	Free string `json:"vg_free"`
}

type report struct {
	Report []struct {
		LV []lvRecord `json:"lv"`
		VG []vgRecord `json:"vg"`
	} `json:"report"`
}

func parseLVReport(data []byte) ([]LogicalVolume, error) {
	var rep report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decoding lvs report: %w", err)
	}

	var result []LogicalVolume
	for _, r := range rep.Report {
		for _, rec := range r.LV {
			lv := LogicalVolume{
				Name:   rec.Name,
				VGName: rec.VGName,
				Attr:   rec.Attr,
				Origin: rec.Origin,
				Path:   rec.Path,
			}
			size, err := parseMB(rec.Size)
			if err != nil {
				return nil, fmt.Errorf("lv %s: bad lv_size %q: %w", rec.Name, rec.Size, err)
			}
			lv.SizeMB = size

			if rec.Time != "" {
				t, err := parseTime(rec.Time)
				if err != nil {
					return nil, fmt.Errorf("lv %s: bad lv_time %q: %w", rec.Name, rec.Time, err)
				}
				lv.CreatedAt = t
			}
			result = append(result, lv)
		}
	}
	return result, nil
}

func parseVGReport(data []byte) ([]VolumeGroup, error) {
	var rep report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decoding vgs report: %w", err)
	}

	var result []VolumeGroup
	for _, r := range rep.Report {
		for _, rec := range r.VG {
			size, err := parseMB(rec.Size)
			if err != nil {
				return nil, fmt.Errorf("vg %s: bad vg_size %q: %w", rec.Name, rec.Size, err)
			}
			free, err := parseMB(rec.Free)
			if err != nil {
				return nil, fmt.Errorf("vg %s: bad vg_free %q: %w", rec.Name, rec.Free, err)
			}
			result = append(result, VolumeGroup{
				Name:   rec.Name,
				SizeMB: size,
				FreeMB: free,
			})
		}
	}
	return result, nil
}
