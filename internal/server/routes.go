package server

import (
	"net/http"

	"github.com/theogognf/toi/internal/metrics"
	"github.com/theogognf/toi/web/handlers"
)

const (
	created = http.StatusCreated
	okay    = http.StatusOK
)

func registerRoutes(mux *http.ServeMux, state *State, svc Services, m *metrics.Metrics) {
	dt := handlers.NewDateTimeHandler()
	mux.HandleFunc("GET /datetime/now", dt.Now)
	mux.HandleFunc("POST /datetime/shift", dt.Shift)
	mux.HandleFunc("GET /datetime/weekday", dt.Weekday)

	mux.HandleFunc("POST /notes", handlers.JSON(svc.Notes.Add, created))
	mux.HandleFunc("PUT /notes", handlers.JSON(svc.Notes.Update, okay))
	mux.HandleFunc("POST /notes/search", handlers.JSON(svc.Notes.Search, okay))
	mux.HandleFunc("POST /notes/delete", handlers.JSON(svc.Notes.Delete, okay))

	mux.HandleFunc("POST /todos", handlers.JSON(svc.Todos.Add, created))
	mux.HandleFunc("PUT /todos", handlers.JSON(svc.Todos.Update, okay))
	mux.HandleFunc("POST /todos/search", handlers.JSON(svc.Todos.Search, okay))
	mux.HandleFunc("POST /todos/delete", handlers.JSON(svc.Todos.Delete, okay))
	mux.HandleFunc("POST /todos/complete", handlers.JSON(svc.Todos.Complete, okay))

	mux.HandleFunc("POST /contacts", handlers.JSON(svc.Contacts.Add, created))
	mux.HandleFunc("PUT /contacts", handlers.JSON(svc.Contacts.Update, okay))
	mux.HandleFunc("POST /contacts/search", handlers.JSON(svc.Contacts.Search, okay))
	mux.HandleFunc("POST /contacts/delete", handlers.JSON(svc.Contacts.Delete, okay))

	mux.HandleFunc("POST /events", handlers.JSON(svc.Events.Add, created))
	mux.HandleFunc("PUT /events", handlers.JSON(svc.Events.Update, okay))
	mux.HandleFunc("POST /events/search", handlers.JSON(svc.Events.Search, okay))
	mux.HandleFunc("POST /events/delete", handlers.JSON(svc.Events.Delete, okay))

	mux.HandleFunc("POST /events/attendees", handlers.JSON(svc.Attendees.Add, created))
	mux.HandleFunc("POST /events/attendees/search", handlers.JSON(svc.Attendees.Search, okay))
	mux.HandleFunc("GET /events/attendees/search", handlers.Query(svc.Attendees.Search, okay))
	mux.HandleFunc("POST /events/attendees/delete", handlers.JSON(svc.Attendees.Delete, okay))

	// Participants are attendees addressed with query parameters only.
	mux.HandleFunc("POST /events/participants", handlers.Query(svc.Attendees.Add, created))
	mux.HandleFunc("GET /events/participants", handlers.Query(svc.Attendees.Search, okay))
	mux.HandleFunc("DELETE /events/participants", handlers.Query(svc.Attendees.Delete, okay))

	mux.HandleFunc("POST /places", handlers.JSON(svc.Places.Add, created))
	mux.HandleFunc("PUT /places", handlers.JSON(svc.Places.Update, okay))
	mux.HandleFunc("POST /places/search", handlers.JSON(svc.Places.Search, okay))
	mux.HandleFunc("POST /places/delete", handlers.JSON(svc.Places.Delete, okay))

	mux.HandleFunc("POST /tags", handlers.JSON(svc.Tags.Add, created))
	mux.HandleFunc("PUT /tags", handlers.JSON(svc.Tags.Update, okay))
	mux.HandleFunc("POST /tags/search", handlers.JSON(svc.Tags.Search, okay))
	mux.HandleFunc("POST /tags/delete", handlers.JSON(svc.Tags.Delete, okay))

	mux.HandleFunc("POST /recipes", handlers.JSON(svc.Recipes.Add, created))
	mux.HandleFunc("PUT /recipes", handlers.JSON(svc.Recipes.Update, okay))
	mux.HandleFunc("POST /recipes/search", handlers.JSON(svc.Recipes.Search, okay))
	mux.HandleFunc("POST /recipes/delete", handlers.JSON(svc.Recipes.Delete, okay))
	mux.HandleFunc("POST /recipes/previews/search", handlers.JSON(svc.RecipePreviews.SearchPreviews, okay))
	mux.HandleFunc("POST /recipes/previews/delete", handlers.JSON(svc.RecipePreviews.DeletePreviews, okay))
	mux.HandleFunc("POST /recipes/tags", handlers.JSON(svc.RecipeTags.Add, created))
	mux.HandleFunc("POST /recipes/tags/search", handlers.JSON(svc.RecipeTags.Search, okay))
	mux.HandleFunc("POST /recipes/tags/delete", handlers.JSON(svc.RecipeTags.Delete, okay))

	mux.HandleFunc("POST /banking/accounts", handlers.JSON(svc.BankAccounts.Add, created))
	mux.HandleFunc("PUT /banking/accounts", handlers.JSON(svc.BankAccounts.Update, okay))
	mux.HandleFunc("POST /banking/accounts/search", handlers.JSON(svc.BankAccounts.Search, okay))
	mux.HandleFunc("POST /banking/accounts/delete", handlers.JSON(svc.BankAccounts.Delete, okay))
	mux.HandleFunc("POST /banking/accounts/transactions", handlers.JSON(svc.AccountTransactions.Add, created))
	mux.HandleFunc("POST /banking/accounts/transactions/search", handlers.JSON(svc.AccountTransactions.Search, okay))
	mux.HandleFunc("POST /banking/accounts/transactions/delete", handlers.JSON(svc.AccountTransactions.Delete, okay))
	mux.HandleFunc("PUT /banking/transactions", handlers.JSON(svc.Transactions.Update, okay))
	mux.HandleFunc("POST /banking/transactions/search", handlers.JSON(svc.Transactions.Search, okay))
	mux.HandleFunc("POST /banking/transactions/delete", handlers.JSON(svc.Transactions.Delete, okay))

	weather := handlers.NewWeatherHandler(svc.Weather)
	mux.HandleFunc("GET /weather/alerts", weather.Alerts)
	mux.HandleFunc("GET /weather/forecast/gridpoint", weather.GridpointForecast)
	mux.HandleFunc("GET /weather/forecast/zone", weather.ZoneForecast)

	news := handlers.NewNewsHandler(svc.News)
	mux.HandleFunc("POST /news", news.Latest)
	mux.HandleFunc("GET /news/{alias}", news.Redirect)

	assist := handlers.NewAssistHandler(svc.Assistant)
	mux.HandleFunc("POST /assist", assist.Assist)
	mux.HandleFunc("GET /assist/ws", assist.AssistSocket)

	mux.HandleFunc("GET /openapi.json", handlers.OpenAPI(state.OpenAPI.JSON()))
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
}
