package domain

import "testing"

func TestState_MergeReplacesTopLevelKeys(t *testing.T) {
	s := &State{
		Callback: &CallbackOptions{CallbackURL: "https://a.example.com/cb", RedirectPath: "/summary"},
		Metadata: map[string]interface{}{"caseId": "123"},
	}
	s.Merge(&State{Metadata: map[string]interface{}{"other": true}})

	if s.Metadata["other"] != true || s.Metadata["caseId"] != nil {
		t.Errorf("Metadata should be replaced wholesale, got %v", s.Metadata)
	}
	if s.Callback == nil || s.Callback.RedirectPath != "/summary" {
		t.Errorf("Callback should be untouched, got %+v", s.Callback)
	}
}

func TestState_MergePayReplacesWholesale(t *testing.T) {
	meta := &PayMeta{Amount: 1000, Description: "kerching", ReturnURL: "boomerang"}
	s := &State{Pay: &PayState{Meta: meta}}

	// A merge that drops meta loses it; the caller must carry it forward.
	s.Merge(&State{Pay: &PayState{PayID: "id", Reference: "ref"}})
	if s.Pay.Meta != nil {
		t.Error("nested meta should not be deep-merged")
	}

	s = &State{Pay: &PayState{Meta: meta}}
	s.Merge(&State{Pay: &PayState{PayID: "id", Reference: "ref", Meta: meta}})
	if s.Pay.Meta == nil || s.Pay.Meta.Amount != 1000 {
		t.Errorf("carried meta should survive, got %+v", s.Pay.Meta)
	}
	if s.Pay.PayID != "id" || s.Pay.Reference != "ref" {
		t.Errorf("Pay = %+v", s.Pay)
	}
}

func TestState_MergeNil(t *testing.T) {
	s := &State{Metadata: map[string]interface{}{"a": 1}}
	s.Merge(nil)
	if s.Metadata["a"] != 1 {
		t.Errorf("Merge(nil) should be a no-op, got %v", s.Metadata)
	}
}

func TestState_RedirectPath(t *testing.T) {
	var nilState *State
	if nilState.RedirectPath() != "" {
		t.Error("nil state should have empty redirect path")
	}
	s := &State{Callback: &CallbackOptions{RedirectPath: "/status"}}
	if s.RedirectPath() != "/status" {
		t.Errorf("RedirectPath = %q", s.RedirectPath())
	}
}
