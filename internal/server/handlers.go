package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/heal-ops/heal/internal/aggregator"
	"github.com/heal-ops/heal/internal/archive"
	"github.com/heal-ops/heal/internal/forecast"
	"github.com/heal-ops/heal/internal/logging"
	"github.com/heal-ops/heal/internal/output"
	"github.com/heal-ops/heal/internal/series"
)

const dateLayout = "2006-01-02"

func (s *Server) handleHealthz(c *gin.Context) {
	resp := gin.H{
		"status":  "ok",
		"archive": s.archive != nil,
		"dropped": s.hub.Dropped(),
	}
	if snap := s.hub.Latest(); snap != nil {
		resp["built_at"] = snap.BuiltAt
		resp["records"] = snap.Records
		resp["skipped"] = snap.Skipped
	}
	c.JSON(http.StatusOK, resp)
}

// snapshot writes 503 and returns nil until the first pass completes.
func (s *Server) snapshot(c *gin.Context) *aggregator.Snapshot {
	snap := s.hub.Latest()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot yet"})
	}
	return snap
}

func (s *Server) handleStatus(c *gin.Context) {
	if snap := s.snapshot(c); snap != nil {
		c.JSON(http.StatusOK, snap)
	}
}

func (s *Server) handleServers(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}
	type view struct {
		aggregator.ServerStatus
		Rank int `json:"rank"`
	}
	statuses := aggregator.ServerStatuses(snap.Tree)
	out := make([]view, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, view{ServerStatus: st, Rank: st.Status.Rank()})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleModules(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}
	type view struct {
		aggregator.ModuleStatus
		Rank int `json:"rank"`
	}
	statuses := aggregator.ModuleStatuses(snap.Tree)
	out := make([]view, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, view{ModuleStatus: st, Rank: st.Status.Rank()})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleServices(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}
	sub := c.Param("sub")
	if aggregator.Classify(sub) != aggregator.Service {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown service check: " + sub})
		return
	}

	groups := aggregator.ServiceStatuses(snap.Tree, sub)
	if c.Query("latest") == "true" {
		for i := range groups {
			groups[i].Instances = aggregator.LatestInstances(groups[i].Instances)
		}
	}
	c.JSON(http.StatusOK, groups)
}

func (s *Server) handleStorage(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}
	figures, err := aggregator.HDDStorage(snap.Tree)
	if err != nil {
		logging.Get().Warn("undecodable storage entries", "err", err)
	}

	type view struct {
		aggregator.StorageFigure
		PercentUsed float64 `json:"percent_used"`
	}
	out := make([]view, 0, len(figures))
	for _, f := range figures {
		out = append(out, view{StorageFigure: f, PercentUsed: f.PercentUsed()})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRange(c *gin.Context) {
	if !s.requireArchive(c) {
		return
	}
	first, last, err := s.archive.DateRange(c.Request.Context())
	if err != nil {
		s.archiveError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": first.Format(dateLayout), "to": last.Format(dateLayout)})
}

func (s *Server) handleStorageHistory(c *gin.Context) {
	if !s.requireArchive(c) {
		return
	}
	from, to, ok := s.dateRange(c)
	if !ok {
		return
	}

	rows, err := s.archive.StorageHistory(c.Request.Context(), aggregator.HDDCheck, from, to)
	if err != nil {
		s.archiveError(c, err)
		return
	}

	selected := series.ResolveSelection(
		c.DefaultQuery("server", series.All),
		c.DefaultQuery("partition", series.All),
		s.opts.Servers, s.opts.Partitions)
	set, errs := series.ExtractStorageSeries(rows, selected)

	c.JSON(http.StatusOK, gin.H{
		"series":    set,
		"forecasts": output.ForecastViews(forecast.ForecastSet(set)),
		"skipped":   len(errs),
	})
}

func (s *Server) handleServiceHistory(c *gin.Context) {
	if !s.requireArchive(c) {
		return
	}
	from, to, ok := s.dateRange(c)
	if !ok {
		return
	}

	rows, err := s.archive.ServiceHistory(c.Request.Context(), aggregator.ServiceChecks(), from, to)
	if err != nil {
		s.archiveError(c, err)
		return
	}

	histories := series.ExtractServiceHistory(rows)
	if sel := c.Query("services"); sel != "" {
		histories = series.FilterByLabels(histories, s.opts.Services, strings.Split(sel, ","))
	}

	type view struct {
		series.ServiceHistory
		Intervals []series.Interval `json:"intervals"`
	}
	out := make([]view, 0, len(histories))
	for _, h := range histories {
		out = append(out, view{ServiceHistory: h, Intervals: h.Intervals()})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleModuleHistory(c *gin.Context) {
	if !s.requireArchive(c) {
		return
	}
	from, to, ok := s.dateRange(c)
	if !ok {
		return
	}

	rows, err := s.archive.ModuleHistory(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		s.archiveError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) requireArchive(c *gin.Context) bool {
	if s.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": archive.ErrUnavailable.Error()})
		return false
	}
	return true
}

func (s *Server) archiveError(c *gin.Context, err error) {
	if errors.Is(err, archive.ErrNoHistory) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	logging.Get().Error("archive query failed", "path", c.FullPath(), "err", err)
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": archive.ErrUnavailable.Error()})
}

// dateRange reads from/to (YYYY-MM-DD), defaulting to the archive's full
// range. It writes the error response itself when ok is false.
func (s *Server) dateRange(c *gin.Context) (from, to time.Time, ok bool) {
	fromQ, toQ := c.Query("from"), c.Query("to")

	if fromQ == "" || toQ == "" {
		first, last, err := s.archive.DateRange(c.Request.Context())
		if err != nil {
			s.archiveError(c, err)
			return time.Time{}, time.Time{}, false
		}
		from, to = first, last
	}

	var err error
	if fromQ != "" {
		if from, err = time.Parse(dateLayout, fromQ); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date: " + fromQ})
			return time.Time{}, time.Time{}, false
		}
	}
	if toQ != "" {
		if to, err = time.Parse(dateLayout, toQ); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date: " + toQ})
			return time.Time{}, time.Time{}, false
		}
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to date precedes from date"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
