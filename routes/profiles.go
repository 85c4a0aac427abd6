package routes

import (
	"net/http"

	"github.com/kataras/iris/v12"

	"influencer-feedback-server/services"
	"influencer-feedback-server/storage"
	"influencer-feedback-server/utils"
)

// GET /api/health
func Health(ctx iris.Context) {
	ds := storage.Dataset()
	ctx.JSON(iris.Map{
		"status":  "ok",
		"records": len(ds.Records),
	})
}

// GET /api/profiles — eligible profiles, first-seen order
func ListProfiles(ctx iris.Context) {
	ds := storage.Dataset()
	if ds.Empty() {
		datasetUnavailable(ctx, ds)
		return
	}
	profiles := ds.EligibleProfiles()
	if profiles == nil {
		profiles = []string{}
	}
	utils.JSONData(ctx, profiles)
}

// GET /api/profiles/summary?perfil=X
func GetProfileSummary(ctx iris.Context) {
	ds := storage.Dataset()
	if ds.Empty() {
		datasetUnavailable(ctx, ds)
		return
	}
	perfil := ctx.URLParam("perfil")
	if perfil == "" {
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "invalid_payload", "perfil query parameter is required")
		return
	}
	summary, ok := services.SummarizeProfile(ctx.Request().Context(), perfil)
	if !ok {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "profile not found or has a single feedback entry")
		return
	}
	utils.JSONData(ctx, summary)
}

// GET /api/profiles/feedback?perfil=X — classified rows for one profile
func GetProfileFeedback(ctx iris.Context) {
	ds := storage.Dataset()
	if ds.Empty() {
		datasetUnavailable(ctx, ds)
		return
	}
	perfil := ctx.URLParam("perfil")
	if perfil == "" {
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "invalid_payload", "perfil query parameter is required")
		return
	}
	rows, ok := services.ProfileFeedback(ctx.Request().Context(), perfil)
	if !ok {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "profile not found or has a single feedback entry")
		return
	}
	utils.JSONData(ctx, rows)
}

// GET /api/ranking — eligible profiles by mean nota, descending
func GetRanking(ctx iris.Context) {
	ds := storage.Dataset()
	if ds.Empty() {
		datasetUnavailable(ctx, ds)
		return
	}
	utils.JSONData(ctx, services.Ranking())
}

func datasetUnavailable(ctx iris.Context, ds *storage.FeedbackDataset) {
	message := "No data available to display. Please check your dataset."
	if ds.LoadErr() != "" {
		message = ds.LoadErr()
	}
	utils.JSONError(ctx, http.StatusServiceUnavailable, "no_data", message)
}
