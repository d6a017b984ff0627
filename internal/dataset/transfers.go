package dataset

import (
	"fmt"
	"sort"

	"github.com/journeyfinder/internal/common/config"
	"github.com/journeyfinder/pkg/gtfs/models"
)

// buildTransfers materializes the walking relation for the configured
// transfer mode. Every stop gets the zero-cost self edge, so boarding
// another trip at the same stop is uniformly a transfer; under the group
// modes each pair of stops sharing the key gets an edge in both directions
// with the configured minimum walking time.
func (d *Dataset) buildTransfers(records []*models.Transfer) error {
	d.transfersByStop = make(map[string][]*models.Transfer, len(d.stops))

	switch d.cfg.TransferMode {
	case config.TransferByNodeID:
		d.buildGroupTransfers(func(s *models.Stop) string { return s.TransferNodeID }, models.TransferByNodeID)
	case config.TransferByParentStation:
		d.buildGroupTransfers(func(s *models.Stop) string { return s.ParentStation }, models.TransferByParentStation)
	case config.TransferByTransfersTxt:
		for _, record := range records {
			if _, ok := d.stops[record.FromStopID]; !ok {
				return fmt.Errorf("transfer references unknown stop %s: %w", record.FromStopID, models.ErrMalformed)
			}
			if _, ok := d.stops[record.ToStopID]; !ok {
				return fmt.Errorf("transfer references unknown stop %s: %w", record.ToStopID, models.ErrMalformed)
			}
			if record.MinSeconds < d.cfg.MinTransferSeconds {
				record.MinSeconds = d.cfg.MinTransferSeconds
			}
			d.transfersByStop[record.FromStopID] = append(d.transfersByStop[record.FromStopID], record)
		}
	case config.TransferNone:
		// The walking relation is the identity.
	}

	for stopID, stop := range d.stops {
		edges := d.transfersByStop[stopID]
		sort.SliceStable(edges, func(i, j int) bool {
			return edges[i].MinSeconds < edges[j].MinSeconds
		})
		self := &models.Transfer{
			FromStopID: stopID,
			ToStopID:   stop.StopID,
			Type:       models.TransferSameStop,
			MinSeconds: 0,
		}
		d.transfersByStop[stopID] = append([]*models.Transfer{self}, edges...)
	}
	return nil
}

func (d *Dataset) buildGroupTransfers(key func(*models.Stop) string, transferType models.TransferType) {
	groups := make(map[string][]*models.Stop)
	for _, stop := range d.stops {
		if k := key(stop); k != "" {
			groups[k] = append(groups[k], stop)
		}
	}
	for _, members := range groups {
		for _, from := range members {
			for _, to := range members {
				if from == to {
					continue
				}
				d.transfersByStop[from.StopID] = append(d.transfersByStop[from.StopID], &models.Transfer{
					FromStopID: from.StopID,
					ToStopID:   to.StopID,
					Type:       transferType,
					MinSeconds: d.cfg.MinTransferSeconds,
				})
			}
		}
	}
}

// TransfersFrom returns the walking edges leaving a stop, the self edge
// first and the rest ordered by walking time.
func (d *Dataset) TransfersFrom(stopID string) []*models.Transfer {
	return d.transfersByStop[stopID]
}
