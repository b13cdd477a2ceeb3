package profile

import (
	"fmt"
	"math"
	"time"

	"bess-roi/internal/model"

	"github.com/sixdouglas/suncalc"
)

// SunShape derives an hourly PV shape for a date and site from the sine of
// the solar altitude at the middle of each local hour. Hours before sunrise
// or after sunset are zero. The shape is rescaled so its sum matches the sum
// of DefaultPVShape, keeping daily yields comparable between the two sources.
func SunShape(date time.Time, lat, lon float64, loc *time.Location) (model.HourlySeries, error) {
	if loc == nil {
		loc = time.UTC
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: invalid coordinates %v,%v", model.ErrInvalidArgument, lat, lon)
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	times := suncalc.GetTimes(day.Add(12*time.Hour), lat, lon)
	sunrise := times["sunrise"].Value
	sunset := times["sunset"].Value

	shape := model.Zero()
	for h := 0; h < model.HoursPerDay; h++ {
		mid := day.Add(time.Duration(h)*time.Hour + 30*time.Minute)
		if mid.Before(sunrise) || mid.After(sunset) {
			continue
		}
		f := math.Sin(suncalc.GetPosition(mid, lat, lon).Altitude)
		if f > 0 {
			shape[h] = f
		}
	}

	total := shape.Sum()
	if total == 0 {
		// Polar night.
		return shape, nil
	}
	return shape.Scale(DefaultPVShape().Sum() / total), nil
}
