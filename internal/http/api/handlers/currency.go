package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/silvanatrade/distributor-portal/internal/activity"
	"github.com/silvanatrade/distributor-portal/internal/currency"
	"github.com/silvanatrade/distributor-portal/internal/http/api/response"
	"github.com/silvanatrade/distributor-portal/internal/models"
)

// CurrencyHandler serves exchange rate lookups.
type CurrencyHandler struct {
	currency *currency.Service
	recorder *activity.Recorder
}

// NewCurrencyHandler constructs a CurrencyHandler.
func NewCurrencyHandler(svc *currency.Service, recorder *activity.Recorder) *CurrencyHandler {
	return &CurrencyHandler{currency: svc, recorder: recorder}
}

// GetRate returns the EUR rate for a currency on a date. The date
// defaults to today when the query parameter is absent.
func (h *CurrencyHandler) GetRate(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))

	date := time.Now().UTC()
	if dateQ := strings.TrimSpace(c.Query("date")); dateQ != "" {
		parsed, errParse := time.Parse("2006-01-02", dateQ)
		if errParse != nil {
			response.Abort(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	rate, errRate := h.currency.GetRate(c.Request.Context(), code, date)
	if errRate != nil {
		response.Fail(c, errRate)
		return
	}

	user := currentUser(c)
	h.recorder.Record(c.Request.Context(), activity.Entry{
		UserID:       &user.ID,
		Action:       models.ActionRateFetched,
		ResourceType: "currency_rate",
		ResourceID:   rate.ID,
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		Detail: map[string]any{
			"currency_code": rate.CurrencyCode,
			"rate_date":     rate.RateDate.Format("2006-01-02"),
			"source":        rate.Source,
		},
	})
	response.OK(c, http.StatusOK, gin.H{"rate": rate})
}

// QuarterAverage returns the quarterly average EUR rate for a currency.
func (h *CurrencyHandler) QuarterAverage(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	year, errYear := strconv.Atoi(strings.TrimSpace(c.Query("year")))
	if errYear != nil || year < 2000 || year > 2200 {
		response.Abort(c, http.StatusBadRequest, "invalid year")
		return
	}
	quarter, errQuarter := strconv.Atoi(strings.TrimSpace(c.Query("quarter")))
	if errQuarter != nil {
		response.Abort(c, http.StatusBadRequest, "invalid quarter")
		return
	}

	avg, errAvg := h.currency.QuarterAverageRate(c.Request.Context(), code, year, quarter)
	if errAvg != nil {
		response.Fail(c, errAvg)
		return
	}
	response.OK(c, http.StatusOK, gin.H{
		"currencyCode": strings.ToUpper(code),
		"year":         year,
		"quarter":      quarter,
		"averageRate":  avg,
	})
}
