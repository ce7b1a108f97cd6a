package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mattzapanta/squares/internal/squares"
	"github.com/mattzapanta/squares/internal/util"

	"github.com/gin-gonic/gin"
)

// ClaimHandler serves the claim state machine.
type ClaimHandler struct {
	Engine *squares.Engine
}

func NewClaimHandler(engine *squares.Engine) *ClaimHandler {
	return &ClaimHandler{Engine: engine}
}

type claimReq struct {
	Row      int   `json:"row"`
	Col      int   `json:"col"`
	PlayerID *uint `json:"player_id"` // admins may claim on behalf of a player
}

// Claim requests one square. Non-admin players can only claim for
// themselves.
func (h *ClaimHandler) Claim(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	var req claimReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	if err := util.ValidateCoordinate(req.Row); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := util.ValidateCoordinate(req.Col); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	target := actor.PlayerID
	if req.PlayerID != nil {
		if !actor.Admin && *req.PlayerID != actor.PlayerID {
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "cannot claim for another player")
			return
		}
		target = *req.PlayerID
	}

	res, err := h.Engine.Claim(c.Request.Context(), id, req.Row, req.Col, target, actor)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"claim": res})
}

// CancelPending withdraws the caller's own pending request.
func (h *ClaimHandler) CancelPending(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	row, ok := pathInt(c, "row")
	if !ok {
		return
	}
	col, ok := pathInt(c, "col")
	if !ok {
		return
	}
	res, err := h.Engine.CancelPending(c.Request.Context(), id, row, col, actor.PlayerID)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"claim": res})
}

func (h *ClaimHandler) Approve(c *gin.Context) {
	h.squareOp(c, h.Engine.Approve)
}

func (h *ClaimHandler) Reject(c *gin.Context) {
	h.squareOp(c, h.Engine.Reject)
}

func (h *ClaimHandler) Release(c *gin.Context) {
	h.squareOp(c, h.Engine.Release)
}

func (h *ClaimHandler) squareOp(c *gin.Context, op func(ctx context.Context, poolID uint, row, col int, actor squares.Actor) (*squares.ClaimResult, error)) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	row, ok := pathInt(c, "row")
	if !ok {
		return
	}
	col, ok := pathInt(c, "col")
	if !ok {
		return
	}
	res, err := op(c.Request.Context(), id, row, col, actor)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"claim": res})
}

func (h *ClaimHandler) BulkApprove(c *gin.Context) {
	h.bulkOp(c, h.Engine.BulkApprove)
}

func (h *ClaimHandler) BulkReject(c *gin.Context) {
	h.bulkOp(c, h.Engine.BulkReject)
}

func (h *ClaimHandler) ReleaseAll(c *gin.Context) {
	h.bulkOp(c, h.Engine.ReleaseAll)
}

func (h *ClaimHandler) bulkOp(c *gin.Context, op func(ctx context.Context, poolID, playerID uint, actor squares.Actor) (int, error)) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := poolID(c)
	if !ok {
		return
	}
	player, err := strconv.Atoi(c.Param("player"))
	if err != nil || player <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid player id")
		return
	}
	count, err := op(c.Request.Context(), id, uint(player), actor)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"count": count})
}
