package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/0x13a/campusjobs/internal/apperror"
	"github.com/0x13a/campusjobs/internal/job"
	"github.com/0x13a/campusjobs/internal/server"
	"github.com/gorilla/feeds"
	"github.com/snabb/sitemap"
)

const feedSize = 50

func jobURL(svr server.Server, j *job.Job) string {
	return fmt.Sprintf("%s/jobs/%s", svr.GetConfig().SiteURL(), j.ID)
}

func RSSFeedHandler(svr server.Server, jobs JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		published, err := jobs.Jobs(r.Context(), job.StatusPublished, feedSize)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for RSS Feed")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		cfg := svr.GetConfig()
		feed := &feeds.Feed{
			Title:       cfg.SiteName + " Jobs",
			Link:        &feeds.Link{Href: cfg.SiteURL()},
			Description: "Latest jobs published on " + cfg.SiteName,
			Created:     time.Now(),
		}
		for _, j := range published {
			title := j.Title
			if j.Details != nil && j.Details.Location != "" {
				title = fmt.Sprintf("%s - %s", j.Title, j.Details.Location)
			}
			item := &feeds.Item{
				Id:          j.Slug,
				Title:       title,
				Link:        &feeds.Link{Href: jobURL(svr, j)},
				Description: j.Description,
				Created:     j.CreatedAt,
				Updated:     j.UpdatedAt,
			}
			if j.CreatedBy != nil {
				item.Author = &feeds.Author{Name: j.CreatedBy.FullName}
			}
			feed.Items = append(feed.Items, item)
		}
		rssFeed, err := feed.ToRss()
		if err != nil {
			svr.Log(err, "unable to convert rss feed to xml")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		svr.XML(w, http.StatusOK, []byte(rssFeed))
	}
}

func SitemapHandler(svr server.Server, jobs JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		published, err := jobs.Jobs(r.Context(), job.StatusPublished, 0)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for sitemap")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		n := time.Now().UTC()
		sm := sitemap.New()
		sm.Add(&sitemap.URL{
			Loc:        svr.GetConfig().SiteURL() + "/jobs",
			LastMod:    &n,
			ChangeFreq: sitemap.Daily,
		})
		for _, j := range published {
			t := j.UpdatedAt
			sm.Add(&sitemap.URL{
				Loc:        jobURL(svr, j),
				LastMod:    &t,
				ChangeFreq: sitemap.Weekly,
			})
		}
		buf := new(bytes.Buffer)
		if _, err := sm.WriteTo(buf); err != nil {
			svr.Log(err, "unable to write sitemap")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		svr.XML(w, http.StatusOK, buf.Bytes())
	}
}

func HealthHandler(svr server.Server, db pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				svr.Error(w, r, apperror.Internal(err, "database unavailable"))
				return
			}
		}
		svr.Success(w, http.StatusOK, "", nil)
	}
}
