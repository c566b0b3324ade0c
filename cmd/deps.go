package cmd

import (
	"time"

	"github.com/spf13/viper"

	"github.com/JackyZzZz/Jacky-PeterPortal/internal/utils"
	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/calendar"
	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/storage"
	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/whttp"
)

// openDB opens the cache database at the configured path.
func openDB() (*storage.DB, string, error) {
	path, err := utils.GetAbsDBPath(viper.GetString("db.path"))
	if err != nil {
		return nil, "", err
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, path, err
	}
	return db, path, nil
}

func newBuilder() (*calendar.Builder, error) {
	client, err := whttp.NewClient(whttp.Options{
		Timeout:  viper.GetDuration("calendar.timeout"),
		RetryMax: viper.GetInt("calendar.retries"),
		Proxy:    viper.GetString("proxy"),
	})
	if err != nil {
		return nil, err
	}
	return calendar.NewBuilder(client, viper.GetString("calendar.baseurl"), utils.Log), nil
}

// newCache wires the builder to the store. A nil db yields a cache that
// builds on every call.
func newCache(db *storage.DB) (*calendar.Cache, error) {
	builder, err := newBuilder()
	if err != nil {
		return nil, err
	}
	var store calendar.Store
	if db != nil {
		store = db.Collection(calendar.CacheCollection)
	}
	return calendar.NewCache(store, builder, utils.Log), nil
}

// currentAcademicYear is the academic year in session on t: fall through
// summer belong to the year the fall started in.
func currentAcademicYear(t time.Time) int {
	local := t.In(calendar.Pacific())
	if local.Month() < time.September {
		return local.Year() - 1
	}
	return local.Year()
}
