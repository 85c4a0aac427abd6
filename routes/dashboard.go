package routes

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/kataras/iris/v12"

	"influencer-feedback-server/services"
	"influencer-feedback-server/storage"
	"influencer-feedback-server/utils"
)

const dashboardTitle = "📊 Análise dos feedbacks sobre influencers brasileiros - Em construção"

type rankingDisplayRow struct {
	Perfil       string
	AvgNota      string
	TotalEntries int
}

type dashboardPageData struct {
	Title     string
	Warning   string
	LoadError string
	Profiles  []string
	Selected  string
	Sentiment string
	AvgNota   string
	Total     int
	Ranking   []rankingDisplayRow
}

var (
	dashboardTmpl     *template.Template
	dashboardTmplOnce sync.Once
)

func loadDashboardTemplate() *template.Template {
	dashboardTmplOnce.Do(func() {
		dashboardTmpl = template.Must(template.ParseFiles(resolveTemplatePath("templates/dashboard.html")))
	})
	return dashboardTmpl
}

func resolveTemplatePath(relativePath string) string {
	// Try direct path (running from root)
	if _, err := os.Stat(relativePath); err == nil {
		return relativePath
	}
	// Try moving up one level (running tests from routes/)
	upOne := filepath.Join("..", relativePath)
	if _, err := os.Stat(upOne); err == nil {
		return upOne
	}
	return relativePath
}

// GET / — server-rendered dashboard
func Dashboard(ctx iris.Context) {
	ds := storage.Dataset()

	data := dashboardPageData{Title: dashboardTitle}
	if ds.Empty() {
		data.Warning = "No data available to display. Please check your dataset."
		data.LoadError = ds.LoadErr()
		renderDashboard(ctx, data)
		return
	}

	data.Profiles = ds.EligibleProfiles()

	perfil := ctx.URLParam("perfil")
	if perfil != "" {
		if summary, ok := services.SummarizeProfile(ctx.Request().Context(), perfil); ok {
			data.Selected = perfil
			data.Sentiment = summary.Sentiment
			data.AvgNota = fmt.Sprintf("%.2f", summary.AvgNota)
			data.Total = summary.TotalEntries
		}
	}

	for _, row := range services.Ranking() {
		data.Ranking = append(data.Ranking, rankingDisplayRow{
			Perfil:       row.Perfil,
			AvgNota:      fmt.Sprintf("%.2f", row.AvgNota),
			TotalEntries: row.TotalEntries,
		})
	}
	renderDashboard(ctx, data)
}

func renderDashboard(ctx iris.Context, data dashboardPageData) {
	ctx.ContentType("text/html")
	if err := loadDashboardTemplate().Execute(ctx.ResponseWriter(), data); err != nil {
		log.Println("❌ Error rendering dashboard:", err)
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "could not render dashboard")
	}
}
