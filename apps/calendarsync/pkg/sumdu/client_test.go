package sumdu_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/sumdu"
)

const payload = `[
	{
		"NAME_DISC": "Algorithms",
		"DATE_REG": "01.09.2025",
		"TIME_PAIR": "09:00-10:20",
		"NAME_AUD": 101,
		"NAME_FIO": "Ivanenko I.I.",
		"NAME_STUD": "IN-21",
		"COMMENT": null,
		"KOD_GROUP": 1002732
	},
	{
		"NAME_DISC": "",
		"DATE_REG": "01.09.2025",
		"TIME_PAIR": "10:30-11:50"
	}
]`

func TestGetSchedule(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		query = map[string]string{
			"method":   r.URL.Query().Get("method"),
			"id_grp":   r.URL.Query().Get("id_grp"),
			"date_beg": r.URL.Query().Get("date_beg"),
			"date_end": r.URL.Query().Get("date_end"),
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := sumdu.New(logging.NewNopLogger(), srv.URL, time.Second)

	from := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	records, err := client.GetSchedule(context.Background(), 1002732, from, from.AddDate(0, 0, 30))
	require.Nil(t, err)

	assert.Equal(t, map[string]string{
		"method":   "getSchedules",
		"id_grp":   "1002732",
		"date_beg": "01.09.2025",
		"date_end": "01.10.2025",
	}, query)

	require.Len(t, records, 2)
	assert.Equal(t, "Algorithms", records[0].NameDisc.String())
	assert.Equal(t, "101", records[0].NameAud.String())
	assert.Equal(t, "", records[0].Comment.String())
	assert.Equal(t, "", records[1].NameDisc.String())
	assert.Equal(t, "", records[1].NameAud.String())
}

func TestGetScheduleBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := sumdu.New(logging.NewNopLogger(), srv.URL, time.Second)

	_, err := client.GetSchedule(context.Background(), 1, time.Now(), time.Now())
	assert.ErrorContains(t, err, "502")
}

func TestGetScheduleMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "oops"}`))
	}))
	defer srv.Close()

	client := sumdu.New(logging.NewNopLogger(), srv.URL, time.Second)

	_, err := client.GetSchedule(context.Background(), 1, time.Now(), time.Now())
	assert.ErrorContains(t, err, "decoding schedule")
}

func TestGetScheduleIgnoresUnknownFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{
			"NAME_DISC": "Algorithms",
			"DATE_REG": "01.09.2025",
			"TIME_PAIR": "09:00-10:20",
			"KOD_GROUP": 1002732,
			"ABBR_DISC": "Alg",
			"NAME_PAIR": "1 pair",
			"INFO": {"online": true}
		}]`))
	}))
	defer srv.Close()

	client := sumdu.New(logging.NewNopLogger(), srv.URL, time.Second)

	records, err := client.GetSchedule(context.Background(), 1, time.Now(), time.Now())
	require.Nil(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Algorithms", records[0].NameDisc.String())
}
