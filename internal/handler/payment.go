package handler

import (
	"net/http"
	"strconv"

	"github.com/mattzapanta/squares/internal/squares"
	"github.com/mattzapanta/squares/internal/util"

	"github.com/gin-gonic/gin"
)

// PaymentHandler serves payment allocation, wallet credit and removal.
type PaymentHandler struct {
	Engine *squares.Engine
}

func NewPaymentHandler(engine *squares.Engine) *PaymentHandler {
	return &PaymentHandler{Engine: engine}
}

func playerParam(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("player"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid player id")
		return 0, false
	}
	return uint(id), true
}

type poolPaymentReq struct {
	PlayerID   uint   `json:"player_id" binding:"required"`
	Amount     string `json:"amount" binding:"required"` // dollars
	AutoAssign bool   `json:"auto_assign"`
}

// PoolPayment records a single-pool payment (admin only).
func (h *PaymentHandler) PoolPayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	var req poolPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	cents, err := util.ParseAmountCent(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	res, err := h.Engine.RecordPoolPayment(c.Request.Context(), id, req.PlayerID, cents, req.AutoAssign, actor)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{
		"payment":          res,
		"credit_remaining": util.FormatCent(res.CreditRemainingCent),
	})
}

type multiPaymentReq struct {
	PlayerID    uint                 `json:"player_id" binding:"required"`
	Total       string               `json:"total" binding:"required"`
	Allocations []squares.Allocation `json:"allocations" binding:"required,min=1"`
}

func (h *PaymentHandler) MultiPoolPayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req multiPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	cents, err := util.ParseAmountCent(req.Total)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	res, err := h.Engine.RecordMultiPoolPayment(c.Request.Context(), req.PlayerID, cents, req.Allocations, actor)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"payment": res})
}

type distributeReq struct {
	PlayerID       uint   `json:"player_id" binding:"required"`
	Total          string `json:"total" binding:"required"`
	Strategy       string `json:"strategy"`
	PreferredPools []uint `json:"preferred_pools"`
}

func (h *PaymentHandler) AutoDistribute(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req distributeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	cents, err := util.ParseAmountCent(req.Total)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	res, err := h.Engine.AutoDistribute(c.Request.Context(), req.PlayerID, cents, squares.DistributeOptions{
		PreferredPools: req.PreferredPools,
		Strategy:       req.Strategy,
	}, actor)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"payment": res})
}

type addCreditReq struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"max=255"`
}

// AddCredit deposits wallet credit for a player (admin only).
func (h *PaymentHandler) AddCredit(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	player, ok := playerParam(c)
	if !ok {
		return
	}
	var req addCreditReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	cents, err := util.ParseAmountCent(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	desc := req.Description
	if desc == "" {
		desc = "credit deposit"
	}

	if err := h.Engine.AddCredit(c.Request.Context(), player, cents, desc, actor); err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "credit added"})
}

type applyCreditReq struct {
	Amount string `json:"amount" binding:"required"`
	New    string `json:"new_amount"` // optional extra money for a combined payment
}

// ApplyCredit spends the caller's wallet credit in a pool, optionally
// combined with new money.
func (h *PaymentHandler) ApplyCredit(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	var req applyCreditReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	creditCents, err := util.ParseAmountCent(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	var res *squares.PaymentResult
	if req.New != "" {
		newCents, err := util.ParseAmountCent(req.New)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
		res, err = h.Engine.CombinedPayment(c.Request.Context(), id, actor.PlayerID, creditCents, newCents, actor)
		if err != nil {
			engineError(c, err)
			return
		}
	} else {
		res, err = h.Engine.ApplyCredit(c.Request.Context(), id, actor.PlayerID, creditCents, actor)
		if err != nil {
			engineError(c, err)
			return
		}
	}
	util.Success(c, util.Response{
		"payment":          res,
		"credit_remaining": util.FormatCent(res.CreditRemainingCent),
	})
}

// Wallet reports the caller's unassigned credit and recent ledger.
func (h *PaymentHandler) Wallet(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	credit, err := h.Engine.UnassignedCredit(c.Request.Context(), actor.PlayerID)
	if err != nil {
		engineError(c, err)
		return
	}
	entries, err := h.Engine.Entries(c.Request.Context(), actor.PlayerID)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{
		"credit_cent": credit,
		"credit":      util.FormatCent(credit),
		"entries":     entries,
	})
}

// RemovePlayer takes a player out of a pool, releasing squares and
// refunding buy-ins to their wallet (admin only).
func (h *PaymentHandler) RemovePlayer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	player, ok := playerParam(c)
	if !ok {
		return
	}
	res, err := h.Engine.RemovePlayer(c.Request.Context(), id, player, actor)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{
		"released":    res.Released,
		"refund_cent": res.RefundCent,
		"refund":      util.FormatCent(res.RefundCent),
	})
}
