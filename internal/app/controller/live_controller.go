package controller

import (
	"strings"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/reviewfunnel-backend/internal/app/service"
	apperrors "github.com/ikkim/reviewfunnel-backend/internal/errors"
	"github.com/ikkim/reviewfunnel-backend/internal/middleware"
	livefeed "github.com/ikkim/reviewfunnel-backend/internal/websocket"
)

// LiveController streams new feedback to an owner's dashboard
type LiveController struct {
	businessService service.BusinessService
	hub             *livefeed.Hub
	upgrader        *gorillaws.Upgrader
}

func NewLiveController(businessService service.BusinessService, hub *livefeed.Hub, allowedOrigins []string) *LiveController {
	return &LiveController{
		businessService: businessService,
		hub:             hub,
		upgrader:        livefeed.NewUpgrader(allowedOrigins),
	}
}

// Live upgrades to a websocket subscribed to the business feed
// GET /business/:slug/reviews/live
func (ctrl *LiveController) Live(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	business, err := ctrl.businessService.GetOwnedBusiness(userID, strings.ToLower(c.Param("slug")))
	if err != nil {
		respondOwnershipError(c, err, "open live feed")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade가 이미 에러 응답을 씀
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"business_id": business.ID,
			"error":       err.Error(),
		})
		return
	}

	livefeed.Serve(ctrl.hub, conn, business.ID, userID)

	log.Info("Live feed connected", map[string]interface{}{
		"business_id": business.ID,
		"user_id":     userID,
	})
}
