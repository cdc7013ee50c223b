package service

import (
	"context"
	"strconv"
	"time"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/model"
	"github.com/coworkdir/admin-api/internal/repository"
)

const (
	topCities   = 5
	recentLeads = 5
)

type Overview struct {
	TotalSpaces    int64  `json:"totalSpaces"`
	ActiveSpaces   int64  `json:"activeSpaces"`
	PendingSpaces  int64  `json:"pendingSpaces"`
	InactiveSpaces int64  `json:"inactiveSpaces"`
	TotalLeads     int64  `json:"totalLeads"`
	NewLeads       int64  `json:"newLeads"`
	QualifiedLeads int64  `json:"qualifiedLeads"`
	ConvertedLeads int64  `json:"convertedLeads"`
	TotalLocations int64  `json:"totalLocations"`
	ConversionRate string `json:"conversionRate"`
}

type Charts struct {
	SpacesByType  []repository.Bucket `json:"spacesByType"`
	SpacesByCity  []repository.Bucket `json:"spacesByCity"`
	LeadsByStatus []repository.Bucket `json:"leadsByStatus"`
}

type RecentLead struct {
	ID          uint64    `json:"id"`
	LeadID      string    `json:"leadId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	EnquiredFor string    `json:"enquiredFor"`
	SpaceType   string    `json:"spaceType"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type DashboardStats struct {
	Overview    Overview     `json:"overview"`
	Charts      Charts       `json:"charts"`
	RecentLeads []RecentLead `json:"recentLeads"`
}

// DashboardService aggregates counts for the admin home page.  Soft-deleted
// rows never count.
type DashboardService struct {
	stats     DashboardStore
	leads     LeadStore
	locations LocationStore
}

func NewDashboardService(stats DashboardStore, leads LeadStore, locations LocationStore) *DashboardService {
	return &DashboardService{stats: stats, leads: leads, locations: locations}
}

func (s *DashboardService) Stats(ctx context.Context) (DashboardStats, error) {
	var out DashboardStats

	spaces, err := s.stats.SpacesByStatus(ctx)
	if err != nil {
		return out, apperr.Unexpected(err)
	}
	for _, b := range spaces {
		out.Overview.TotalSpaces += b.Value
		switch b.Name {
		case model.SpaceStatusActive:
			out.Overview.ActiveSpaces = b.Value
		case model.SpaceStatusPending:
			out.Overview.PendingSpaces = b.Value
		case model.SpaceStatusInactive:
			out.Overview.InactiveSpaces = b.Value
		}
	}

	leads, err := s.stats.LeadsByStatus(ctx)
	if err != nil {
		return out, apperr.Unexpected(err)
	}
	for _, b := range leads {
		out.Overview.TotalLeads += b.Value
		switch b.Name {
		case model.LeadStatusNew:
			out.Overview.NewLeads = b.Value
		case model.LeadStatusQualified:
			out.Overview.QualifiedLeads = b.Value
		case model.LeadStatusConverted:
			out.Overview.ConvertedLeads = b.Value
		}
	}
	out.Overview.ConversionRate = conversionRate(out.Overview.ConvertedLeads, out.Overview.TotalLeads)

	if out.Overview.TotalLocations, err = s.locations.CountActive(ctx); err != nil {
		return out, apperr.Unexpected(err)
	}

	if out.Charts.SpacesByType, err = s.stats.SpacesByType(ctx); err != nil {
		return out, apperr.Unexpected(err)
	}
	if out.Charts.SpacesByCity, err = s.stats.SpacesByCity(ctx, topCities); err != nil {
		return out, apperr.Unexpected(err)
	}
	out.Charts.SpacesByType = named(out.Charts.SpacesByType)
	out.Charts.SpacesByCity = named(out.Charts.SpacesByCity)
	out.Charts.LeadsByStatus = named(leads)

	recent, err := s.leads.FindRecent(ctx, recentLeads)
	if err != nil {
		return out, apperr.Unexpected(err)
	}
	out.RecentLeads = make([]RecentLead, 0, len(recent))
	for _, l := range recent {
		out.RecentLeads = append(out.RecentLeads, RecentLead{
			ID:          l.ID,
			LeadID:      l.LeadID,
			Name:        l.Name,
			Email:       l.Email,
			EnquiredFor: l.EnquiredFor,
			SpaceType:   l.SpaceType,
			Status:      l.Status,
			CreatedAt:   l.CreatedAt,
		})
	}
	return out, nil
}

// conversionRate renders converted/total as a percentage with one decimal,
// or "0%" when there are no leads.
func conversionRate(converted, total int64) string {
	if total == 0 {
		return "0%"
	}
	return strconv.FormatFloat(float64(converted)*100/float64(total), 'f', 1, 64) + "%"
}

// named labels empty group keys "Unknown" and never returns nil.
func named(in []repository.Bucket) []repository.Bucket {
	out := make([]repository.Bucket, 0, len(in))
	for _, b := range in {
		if b.Name == "" {
			b.Name = "Unknown"
		}
		out = append(out, b)
	}
	return out
}
