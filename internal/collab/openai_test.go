package collab

import "testing"

func TestParseEmotionReply(t *testing.T) {
	res, err := parseEmotionReply(`{"primary_emotion":"Sad","confidence":0.83,"secondary_markers":["downcast gaze"]}`, "gpt-4o-mini")
	if err != nil {
		t.Fatalf("parseEmotionReply returned error: %v", err)
	}
	if res.PrimaryEmotion != "sad" || res.Confidence != 0.83 || res.ModelVersion != "gpt-4o-mini" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.SecondaryMarkers) != 1 {
		t.Fatalf("markers = %v", res.SecondaryMarkers)
	}
}

func TestParseEmotionReplyCodeFence(t *testing.T) {
	res, err := parseEmotionReply("```json\n{\"primary_emotion\":\"neutral\",\"confidence\":1.4}\n```", "m")
	if err != nil {
		t.Fatalf("parseEmotionReply returned error: %v", err)
	}
	if res.PrimaryEmotion != "neutral" {
		t.Fatalf("primary = %q", res.PrimaryEmotion)
	}
	if res.Confidence != 1 {
		t.Fatalf("confidence not clamped: %v", res.Confidence)
	}
}

func TestParseEmotionReplyRejectsGarbage(t *testing.T) {
	if _, err := parseEmotionReply("the user appears sad", "m"); err == nil {
		t.Fatalf("expected error for non-JSON reply")
	}
	if _, err := parseEmotionReply(`{"confidence":0.5}`, "m"); err == nil {
		t.Fatalf("expected error for missing primary_emotion")
	}
}
