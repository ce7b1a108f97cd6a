package handler

import (
	"net/http"

	"github.com/mattzapanta/squares/internal/middleware"
	"github.com/mattzapanta/squares/internal/squares"
	"github.com/mattzapanta/squares/internal/util"

	"github.com/gin-gonic/gin"
)

// engineError maps a core failure onto the HTTP envelope. Business-rule
// violations surface their message verbatim; anything else is a storage
// failure and stays opaque.
func engineError(c *gin.Context, err error) {
	kind := squares.KindOf(err)
	if kind == "" {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
		return
	}

	status := http.StatusConflict
	code := util.CodeConflict
	switch kind {
	case squares.KindPoolNotFound, squares.KindSquareNotFound, squares.KindPlayerNotFound:
		status, code = http.StatusNotFound, util.CodeNotFound
	case squares.KindBanned, squares.KindNotMember, squares.KindNotRequester:
		status, code = http.StatusForbidden, util.CodeForbidden
	case squares.KindInvalidAmount, squares.KindInvalidStatus:
		status, code = http.StatusBadRequest, util.CodeInvalidParam
	}
	util.Error(c, status, code, err.Error())
}

func actorFrom(c *gin.Context) (squares.Actor, bool) {
	player := middleware.CurrentPlayer(c)
	if player == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return squares.Actor{}, false
	}
	return squares.Actor{PlayerID: player.ID, Admin: player.Admin}, true
}
