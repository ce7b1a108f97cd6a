package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mattzapanta/squares/internal/config"
	"github.com/mattzapanta/squares/internal/squares"
	"github.com/mattzapanta/squares/internal/util"

	"github.com/gin-gonic/gin"
)

// PoolHandler serves pool lifecycle and grid endpoints.
type PoolHandler struct {
	Engine   *squares.Engine
	Defaults config.PoolConfig
}

func NewPoolHandler(engine *squares.Engine, defaults config.PoolConfig) *PoolHandler {
	return &PoolHandler{Engine: engine, Defaults: defaults}
}

func poolID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid pool id")
		return 0, false
	}
	return uint(id), true
}

func pathInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid "+name)
		return 0, false
	}
	return v, true
}

type createPoolReq struct {
	Name              string `json:"name" binding:"required,max=128"`
	Denomination      string `json:"denomination"`       // dollars, e.g. "25"
	MaxPerPlayer      int    `json:"max_per_player"`
	ApprovalThreshold *int   `json:"approval_threshold"` // nil = config default
	GameDate          string `json:"game_date"`          // YYYY-MM-DD
}

func (h *PoolHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req createPoolReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	params := squares.PoolParams{
		Name:              req.Name,
		DenominationCent:  h.Defaults.DenominationCent,
		MaxPerPlayer:      h.Defaults.MaxPerPlayer,
		ApprovalThreshold: h.Defaults.ApprovalThreshold,
	}
	if req.Denomination != "" {
		cents, err := util.ParseAmountCent(req.Denomination)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
		params.DenominationCent = cents
	}
	if req.MaxPerPlayer > 0 {
		params.MaxPerPlayer = req.MaxPerPlayer
	}
	if req.ApprovalThreshold != nil {
		params.ApprovalThreshold = *req.ApprovalThreshold
	}
	if req.GameDate != "" {
		t, err := time.Parse("2006-01-02", req.GameDate)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "game_date must be YYYY-MM-DD")
			return
		}
		params.GameDate = &t
	}

	pool, err := h.Engine.CreatePool(c.Request.Context(), params, actor)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"pool": pool})
}

func (h *PoolHandler) List(c *gin.Context) {
	pools, err := h.Engine.ListPools(c.Request.Context(), c.Query("status"))
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"pools": pools})
}

func (h *PoolHandler) Grid(c *gin.Context) {
	id, ok := poolID(c)
	if !ok {
		return
	}
	view, err := h.Engine.Grid(c.Request.Context(), id)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"grid": view})
}

func (h *PoolHandler) Join(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	if err := h.Engine.AddMember(c.Request.Context(), id, actor.PlayerID, actor); err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "joined"})
}

func (h *PoolHandler) Lock(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	res, err := h.Engine.Lock(c.Request.Context(), id, actor)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"lock": res})
}

func (h *PoolHandler) Unlock(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	if err := h.Engine.Unlock(c.Request.Context(), id, actor); err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "unlocked"})
}

type setStatusReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *PoolHandler) SetStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	if err := h.Engine.SetPoolStatus(c.Request.Context(), id, req.Status, actor); err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "status updated"})
}

type recordWinnerReq struct {
	Period    string `json:"period" binding:"required,max=32"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

func (h *PoolHandler) RecordWinner(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	var req recordWinnerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	winner, err := h.Engine.RecordWinner(c.Request.Context(), id, req.Period, req.HomeScore, req.AwayScore, actor)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"winner": winner})
}

func (h *PoolHandler) Winners(c *gin.Context) {
	id, ok := poolID(c)
	if !ok {
		return
	}
	winners, err := h.Engine.Winners(c.Request.Context(), id)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"winners": winners})
}
