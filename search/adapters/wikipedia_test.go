package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWikipedia_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pages":[
			{"title":"Go (programming language)","key":"Go_(programming_language)","excerpt":"Go is a <span class=\"searchmatch\">statically</span> typed language."}
		]}`))
	}))
	defer server.Close()

	wp := NewWikipedia(server.URL, 0.9, nil)
	results, err := wp.Query(context.Background(), "go", time.Second)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Go is a statically typed language.", results[0].Description)
	assert.Contains(t, results[0].URL, "/wiki/Go_")
}

func TestYaCy_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"channels":[{"items":[
			{"title":"t1","link":"https://example.com/1","description":"d1"},
			{"title":"t2","link":"","description":"dropped"}
		]}]}`))
	}))
	defer server.Close()

	y := NewYaCy(server.URL, 0.6, nil)
	results, err := y.Query(context.Background(), "q", time.Second)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "yacy", results[0].Provider)
}

func TestDuckDuckGo_QueryAbstractAndRelated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"Heading":"Go","AbstractText":"Go is a language","AbstractURL":"https://go.dev",
			"RelatedTopics":[{"Text":"Golang - a statically typed language","FirstURL":"https://go.dev/related"}]
		}`))
	}))
	defer server.Close()

	d := NewDuckDuckGo(server.URL, 0.7, nil)
	results, err := d.Query(context.Background(), "go", time.Second)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://go.dev", results[0].URL)
	assert.Equal(t, 0.7, results[0].Confidence)
	assert.Equal(t, "Golang", results[1].Title)
	assert.InDelta(t, 0.56, results[1].Confidence, 0.001)
}

func TestStackExchange_QueryBoostsAnswered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[
			{"title":"answered","link":"https://stackoverflow.com/q/1","is_answered":true,"creation_date":1700000000},
			{"title":"unanswered","link":"https://stackoverflow.com/q/2","is_answered":false}
		]}`))
	}))
	defer server.Close()

	s := NewStackExchange(server.URL, "", 0.75, nil)
	results, err := s.Query(context.Background(), "q", time.Second)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Greater(t, results[0].Confidence, results[1].Confidence)
}
