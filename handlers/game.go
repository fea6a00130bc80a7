package handlers

import (
	"quiz-settlement-system/middleware"
	"quiz-settlement-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, gameService *services.GameService, settlementService *services.SettlementService) {
	// Every route needs an authenticated user; staking and submitting are
	// always on behalf of the caller.
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Lifecycle — :mode is solo|duel|league
	secured.Post("/:mode/games", gameService.CreateGame)
	secured.Post("/:mode/games/join", gameService.JoinGame)
	secured.Post("/league/games/:id/start", gameService.StartGame)

	// Play + settlement
	secured.Post("/:mode/games/:id/submit", settlementService.SubmitAnswers)
	secured.Get("/games/:id", settlementService.GameStatus)
}
