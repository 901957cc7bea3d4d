package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"optbt/chain"
	"optbt/sim"
	"optbt/strategy"
)

// Handler serves the simulation endpoints over a fixed option chain
// loaded at startup.
type Handler struct {
	data   chain.Table
	loaded time.Time
	store  *RunStore
}

// NewHandler creates a handler over the given chain data.
func NewHandler(data chain.Table, store *RunStore) *Handler {
	return &Handler{data: data, loaded: time.Now(), store: store}
}

// SimulateRequest is the POST /api/simulate body. Strategy type is
// required; everything else falls back to defaults.
type SimulateRequest struct {
	Strategy struct {
		Type   string         `json:"type" binding:"required"`
		Params map[string]any `json:"params"`
	} `json:"strategy" binding:"required"`

	Simulation struct {
		Capital      float64 `json:"capital"`
		Quantity     int     `json:"quantity"`
		MaxPositions int     `json:"max_positions"`
		Multiplier   int     `json:"multiplier"`
		Selector     string  `json:"selector"`
		Start        string  `json:"start"`
		End          string  `json:"end"`
	} `json:"simulation"`
}

// Simulate runs a strategy over the loaded chain and stores the result.
func (h *Handler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	strat, err := strategy.ByName(req.Strategy.Type, req.Strategy.Params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := sim.DefaultOptions()
	if req.Simulation.Capital > 0 {
		opts.Capital = req.Simulation.Capital
	}
	if req.Simulation.Quantity > 0 {
		opts.Quantity = req.Simulation.Quantity
	}
	if req.Simulation.MaxPositions > 0 {
		opts.MaxPositions = req.Simulation.MaxPositions
	}
	if req.Simulation.Multiplier > 0 {
		opts.Multiplier = req.Simulation.Multiplier
	}
	if req.Simulation.Selector != "" {
		opts.Selector = req.Simulation.Selector
	}

	data := h.data
	if req.Simulation.Start != "" || req.Simulation.End != "" {
		start, end, err := parseWindow(req.Simulation.Start, req.Simulation.End)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		data = data.TrimExpirations(start, end)
	}

	result, err := sim.Simulate(data, strat, opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec := h.store.Add(strat.Name(), opts.Selector, result)
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{
			"run_id":  rec.ID,
			"trades":  len(result.TradeLog),
			"summary": result.Summary,
		},
	})
}

// GetRuns lists stored runs, newest first.
func (h *Handler) GetRuns(c *gin.Context) {
	runs := h.store.List()
	c.JSON(http.StatusOK, gin.H{
		"code":  0,
		"count": len(runs),
		"data":  runs,
	})
}

// GetRun returns the full result of one stored run.
func (h *Handler) GetRun(c *gin.Context) {
	id := c.Param("id")
	rec := h.store.Get(id)
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found", "id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{
			"id":           rec.ID,
			"created_at":   rec.CreatedAt,
			"strategy":     rec.Strategy,
			"selector":     rec.Selector,
			"summary":      rec.Result.Summary,
			"trade_log":    rec.Result.TradeLog,
			"equity_curve": rec.Result.EquityCurve,
		},
	})
}

// GetStrategies lists the registered strategy and selector names.
func (h *Handler) GetStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{
			"strategies": strategy.Names(),
			"selectors":  sim.SelectorNames(),
		},
	})
}

// GetStatus reports the loaded dataset and run count.
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{
			"quotes":    len(h.data),
			"symbols":   h.data.Symbols(),
			"loaded_at": h.loaded,
			"runs":      h.store.Count(),
		},
	})
}

func parseWindow(start, end string) (time.Time, time.Time, error) {
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = time.Parse("2006-01-02", start); err != nil {
			return s, e, err
		}
	}
	if end != "" {
		if e, err = time.Parse("2006-01-02", end); err != nil {
			return s, e, err
		}
	}
	return s, e, nil
}
