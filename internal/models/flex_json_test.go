package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/osuchan/stats-api/internal/osu"
)

func TestFlexUnmarshal_UserAllStrings(t *testing.T) {
	input := `[{"user_id":"124493","username":"Cookiezi","join_date":"2011-08-02 11:24:37","count300":"10481306","count100":"423140","count50":"31002","playcount":"37622","ranked_score":"62347513298","total_score":"196573102548","pp_rank":"17","level":"101.932","pp_raw":"13521.6","accuracy":"98.8836","count_rank_ss":"283","count_rank_ssh":"150","count_rank_s":"1243","count_rank_sh":"770","count_rank_a":"1024","country":"KR","total_seconds_played":"2218302","pp_country_rank":"2","events":[]}]`

	var users []UserData
	if err := json.Unmarshal([]byte(input), &users); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("Expected 1 user, got %d", len(users))
	}

	u := users[0]
	if u.UserID != 124493 {
		t.Errorf("UserID = %d, want 124493", u.UserID)
	}
	if u.PPRaw != 13521.6 {
		t.Errorf("PPRaw = %f, want 13521.6", u.PPRaw)
	}
	if u.Country != "KR" {
		t.Errorf("Country = %q, want KR", u.Country)
	}

	var user OsuUser
	var stats UserStats
	if err := u.ApplyTo(&user, &stats); err != nil {
		t.Fatalf("ApplyTo: %v", err)
	}
	want := time.Date(2011, 8, 2, 11, 24, 37, 0, time.UTC)
	if !user.JoinDate.Equal(want) {
		t.Errorf("JoinDate = %v, want %v", user.JoinDate, want)
	}
	if stats.Rank != 17 || stats.CountryRank != 2 || stats.Playtime != 2218302 {
		t.Errorf("stats not copied: %+v", stats)
	}
}

func TestFlexUnmarshal_ScoreWithoutPP(t *testing.T) {
	input := `{"beatmap_id":"129891","score":"132408001","maxcombo":"2385","count50":"0","count100":"5","count300":"1978","countmiss":"0","countkatu":"4","countgeki":"247","perfect":"1","enabled_mods":"24","user_id":"124493","date":"2013-06-22 09:31:48","rank":"SH","pp":null}`

	var s ScoreData
	if err := json.Unmarshal([]byte(input), &s); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if s.PP != nil {
		t.Errorf("PP = %v, want nil", *s.PP)
	}
	if !s.Perfect {
		t.Errorf("Perfect = false, want true")
	}
	if s.EnabledMods != osu.ModHidden|osu.ModHardRock {
		t.Errorf("EnabledMods = %v, want HDHR", s.EnabledMods)
	}

	score, err := s.ToScore(124493, osu.GamemodeStandard)
	if err != nil {
		t.Fatalf("ToScore: %v", err)
	}
	if score.BeatmapID != 129891 || score.Rank != "SH" {
		t.Errorf("unexpected score %+v", score)
	}
	wantAcc := 100 * float64(300*1978+100*5) / float64(300*1983)
	if score.Accuracy != wantAcc {
		t.Errorf("Accuracy = %f, want %f", score.Accuracy, wantAcc)
	}
}

func TestFlexUnmarshal_StringPointer(t *testing.T) {
	var s ScoreData
	if err := json.Unmarshal([]byte(`{"beatmap_id":"1","pp":"727.5","date":"2020-01-01 00:00:00"}`), &s); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if s.PP == nil || *s.PP != 727.5 {
		t.Fatalf("PP = %v, want 727.5", s.PP)
	}
}

func TestFlexUnmarshal_NativeTypes(t *testing.T) {
	var s ScoreData
	input := `{"beatmap_id":42,"score":1000,"enabled_mods":64,"pp":12.5,"rank":"A","date":"2020-01-01 00:00:00"}`
	if err := json.Unmarshal([]byte(input), &s); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if s.BeatmapID != 42 || s.EnabledMods != osu.ModDoubleTime || *s.PP != 12.5 {
		t.Errorf("unexpected record %+v", s)
	}
}

func TestFlexUnmarshal_InvalidNumber(t *testing.T) {
	var s ScoreData
	if err := json.Unmarshal([]byte(`{"score":"lots"}`), &s); err == nil {
		t.Error("expected error for non-numeric score")
	}
}

func TestBeatmapDataToBeatmap(t *testing.T) {
	input := `{"beatmapset_id":"39804","beatmap_id":"129891","approved":"1","total_length":"358","hit_length":"333","version":"FOUR DIMENSIONS","diff_size":"4","diff_overall":"8","diff_approach":"9","diff_drain":"7","mode":"0","submit_date":"2011-12-24 09:41:47","approved_date":"2012-03-26 17:07:32","last_update":"2012-03-26 16:55:33","artist":"xi","title":"FREEDOM DiVE","creator":"Nakagawa-Kanon","bpm":"222.22","max_combo":"2385","difficultyrating":"7.0"}`

	var d BeatmapData
	if err := json.Unmarshal([]byte(input), &d); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	b, err := d.ToBeatmap()
	if err != nil {
		t.Fatalf("ToBeatmap: %v", err)
	}
	if b.Status != osu.BeatmapRanked || b.AR != 9 || b.DrainTime != 333 {
		t.Errorf("unexpected beatmap %+v", b)
	}
	if b.ApprovalDate == nil || !b.RankedDate().Equal(time.Date(2012, 3, 26, 17, 7, 32, 0, time.UTC)) {
		t.Errorf("RankedDate = %v", b.RankedDate())
	}

	d.ApprovedDate = ""
	b, _ = d.ToBeatmap()
	if b.ApprovalDate != nil || !b.RankedDate().Equal(b.SubmissionDate) {
		t.Errorf("RankedDate should fall back to submission date")
	}
}

func TestScoreFilterIsDefault(t *testing.T) {
	acc := 95.0
	tests := []struct {
		name   string
		filter *ScoreFilter
		want   bool
	}{
		{"Nil", nil, true},
		{"Empty", &ScoreFilter{}, true},
		{"RankedOnly", &ScoreFilter{AllowedBeatmapStatus: []osu.BeatmapStatus{osu.BeatmapRanked}}, true},
		{"Loved", &ScoreFilter{AllowedBeatmapStatus: []osu.BeatmapStatus{osu.BeatmapRanked, osu.BeatmapLoved}}, false},
		{"Mods", &ScoreFilter{RequiredMods: osu.ModHidden}, false},
		{"Accuracy", &ScoreFilter{LowestAccuracy: &acc}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.IsDefault(); got != tt.want {
				t.Errorf("IsDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}
