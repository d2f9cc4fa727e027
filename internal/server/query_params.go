package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aibes/standsight/internal/period"
)

const queryDateLayout = "2006-01-02"

// periodFromQuery builds the aggregation period from the request. The tag
// decides which extra parameters apply; everything defaults to "now" so a
// bare request shows today's dashboard.
func periodFromQuery(c *gin.Context) (period.Period, error) {
	tag, err := period.ParseTag(c.DefaultQuery("period", string(period.TagDaily)))
	if err != nil {
		return period.Period{}, err
	}

	now := time.Now().UTC()

	switch tag {
	case period.TagDaily:
		on, err := dateParam(c, "date", now)
		if err != nil {
			return period.Period{}, err
		}
		return period.Daily(on), nil
	case period.TagWeekly:
		end, err := dateParam(c, "end", now)
		if err != nil {
			return period.Period{}, err
		}
		return period.Weekly(end), nil
	case period.TagMonthly:
		year, err := intParam(c, "year", now.Year())
		if err != nil {
			return period.Period{}, err
		}
		month, err := intParam(c, "month", int(now.Month()))
		if err != nil {
			return period.Period{}, err
		}
		if month < 1 || month > 12 {
			return period.Period{}, newValidationError("month", "out_of_range", "month must be 1 to 12")
		}
		return period.Monthly(year, time.Month(month)), nil
	case period.TagYearly:
		year, err := intParam(c, "year", now.Year())
		if err != nil {
			return period.Period{}, err
		}
		return period.Yearly(year), nil
	case period.TagCustom:
		start, err := requiredDateParam(c, "start")
		if err != nil {
			return period.Period{}, err
		}
		end, err := requiredDateParam(c, "end")
		if err != nil {
			return period.Period{}, err
		}
		return period.Custom(start, end)
	default:
		return period.Period{}, period.ErrInvalidTag
	}
}

func yearFromQuery(c *gin.Context) (int, error) {
	return intParam(c, "year", time.Now().UTC().Year())
}

func dateParam(c *gin.Context, name string, fallback time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(queryDateLayout, raw)
	if err != nil {
		return time.Time{}, newValidationError(name, "invalid_date", "expected YYYY-MM-DD")
	}
	return t, nil
}

func requiredDateParam(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, newValidationError(name, "required", name+" is required")
	}
	t, err := time.Parse(queryDateLayout, raw)
	if err != nil {
		return time.Time{}, newValidationError(name, "invalid_date", "expected YYYY-MM-DD")
	}
	return t, nil
}

func intParam(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, newValidationError(name, "invalid_number", "expected an integer")
	}
	return n, nil
}
