package timeline

import (
	"errors"
	"testing"
)

func TestSetPropertyValue(t *testing.T) {
	d, video, _ := newTestDoc(t)
	d, clip := addTestClip(t, d, video.ID, SourceVideo, 0, 5, 60)

	d2, applied, err := d.SetPropertyValue(clip.ID, PropX, 120)
	if err != nil || !applied {
		t.Fatalf("SetPropertyValue: applied=%v err=%v", applied, err)
	}
	got, _ := d2.ClipByID(clip.ID)
	if got.Transform.X != 120 {
		t.Errorf("x = %v, want 120", got.Transform.X)
	}

	tests := []struct {
		name    string
		prop    Property
		value   float64
		applied bool
		wantErr bool
	}{
		{"volume", PropVolume, 0.5, true, false},
		{"negative volume rejected", PropVolume, -0.1, false, true},
		{"opacity above one rejected", PropOpacity, 1.5, false, true},
		{"unknown property rejected", Property("glow"), 1, false, true},
		{"missing effect instance is a no-op", EffectParam("ghost", "amount"), 1, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, applied, err := d.SetPropertyValue(clip.ID, tt.prop, tt.value)
			if applied != tt.applied {
				t.Errorf("applied = %v, want %v", applied, tt.applied)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("effect param writes copy on write", func(t *testing.T) {
		withFX := d
		var applied bool
		var err error
		withFX, applied, err = withFX.UpdateClip(clip.ID, ClipPatch{
			Effects: &[]Effect{{ID: "blur1", Kind: "blur", Enabled: true, Params: map[string]float64{"radius": 2}}},
		})
		if err != nil || !applied {
			t.Fatalf("UpdateClip: applied=%v err=%v", applied, err)
		}
		next, applied, err := withFX.SetPropertyValue(clip.ID, EffectParam("blur1", "radius"), 8)
		if err != nil || !applied {
			t.Fatalf("SetPropertyValue: applied=%v err=%v", applied, err)
		}
		before, _ := withFX.ClipByID(clip.ID)
		after, _ := next.ClipByID(clip.ID)
		if before.Effects[0].Params["radius"] != 2 {
			t.Errorf("older revision mutated: radius = %v", before.Effects[0].Params["radius"])
		}
		if after.Effects[0].Params["radius"] != 8 {
			t.Errorf("radius = %v, want 8", after.Effects[0].Params["radius"])
		}
	})
}

func TestAddKeyframe(t *testing.T) {
	d, video, _ := newTestDoc(t)
	d, clip := addTestClip(t, d, video.ID, SourceVideo, 0, 10, 10)

	d2, applied, err := d.AddKeyframe(clip.ID, Keyframe{Property: PropOpacity, Time: 2, Value: 0.2})
	if err != nil || !applied {
		t.Fatalf("AddKeyframe: applied=%v err=%v", applied, err)
	}
	keys := d2.KeyframesFor(clip.ID, PropOpacity)
	if len(keys) != 1 || keys[0].Easing != EasingLinear || keys[0].ID == "" {
		t.Fatalf("keyframe = %+v, want linear default easing and an id", keys)
	}

	t.Run("same time replaces", func(t *testing.T) {
		d3, applied, err := d2.AddKeyframe(clip.ID, Keyframe{Property: PropOpacity, Time: 2, Value: 0.9})
		if err != nil || !applied {
			t.Fatalf("AddKeyframe: applied=%v err=%v", applied, err)
		}
		keys := d3.KeyframesFor(clip.ID, PropOpacity)
		if len(keys) != 1 || keys[0].Value != 0.9 {
			t.Errorf("keyframes = %+v, want single replaced value 0.9", keys)
		}
	})

	t.Run("outside the window rejected", func(t *testing.T) {
		if _, _, err := d2.AddKeyframe(clip.ID, Keyframe{Property: PropOpacity, Time: 11, Value: 1}); !errors.Is(err, ErrInvalid) {
			t.Errorf("err = %v, want ErrInvalid", err)
		}
		if _, _, err := d2.AddKeyframe(clip.ID, Keyframe{Property: PropOpacity, Time: -1, Value: 1}); !errors.Is(err, ErrInvalid) {
			t.Errorf("err = %v, want ErrInvalid", err)
		}
	})

	t.Run("missing clip is a no-op", func(t *testing.T) {
		if _, applied, err := d2.AddKeyframe("ghost", Keyframe{Property: PropOpacity, Time: 2, Value: 1}); applied || err != nil {
			t.Errorf("applied=%v err=%v, want silent no-op", applied, err)
		}
	})

	t.Run("keeps per property ordering", func(t *testing.T) {
		d3 := d2
		var err error
		var applied bool
		for _, k := range []Keyframe{
			{Property: PropOpacity, Time: 8, Value: 0.8},
			{Property: PropOpacity, Time: 5, Value: 0.5},
			{Property: PropX, Time: 1, Value: 10},
		} {
			if d3, applied, err = d3.AddKeyframe(clip.ID, k); err != nil || !applied {
				t.Fatalf("AddKeyframe: applied=%v err=%v", applied, err)
			}
		}
		keys := d3.KeyframesFor(clip.ID, PropOpacity)
		wantTimes := []float64{2, 5, 8}
		if len(keys) != 3 {
			t.Fatalf("keyframes = %d, want 3", len(keys))
		}
		for i, k := range keys {
			if k.Time != wantTimes[i] {
				t.Errorf("key %d time = %v, want %v", i, k.Time, wantTimes[i])
			}
		}
	})
}

func TestMoveKeyframe(t *testing.T) {
	d, video, _ := newTestDoc(t)
	d, clip := addTestClip(t, d, video.ID, SourceVideo, 0, 10, 10)
	var applied bool
	var err error
	if d, applied, err = d.AddKeyframe(clip.ID, Keyframe{ID: "k1", Property: PropOpacity, Time: 2, Value: 0.2}); err != nil || !applied {
		t.Fatalf("AddKeyframe: applied=%v err=%v", applied, err)
	}
	if d, applied, err = d.AddKeyframe(clip.ID, Keyframe{ID: "k2", Property: PropOpacity, Time: 6, Value: 0.6}); err != nil || !applied {
		t.Fatalf("AddKeyframe: applied=%v err=%v", applied, err)
	}

	d2, applied, err := d.MoveKeyframe(clip.ID, "k1", 4, 0.4)
	if err != nil || !applied {
		t.Fatalf("MoveKeyframe: applied=%v err=%v", applied, err)
	}
	keys := d2.KeyframesFor(clip.ID, PropOpacity)
	if len(keys) != 2 || keys[0].Time != 4 || keys[0].Value != 0.4 {
		t.Errorf("keyframes = %+v, want k1 at 4/0.4", keys)
	}

	t.Run("landing on another keyframe displaces it", func(t *testing.T) {
		d3, applied, err := d.MoveKeyframe(clip.ID, "k1", 6, 0.9)
		if err != nil || !applied {
			t.Fatalf("MoveKeyframe: applied=%v err=%v", applied, err)
		}
		keys := d3.KeyframesFor(clip.ID, PropOpacity)
		if len(keys) != 1 || keys[0].ID != "k1" || keys[0].Value != 0.9 {
			t.Errorf("keyframes = %+v, want only moved k1", keys)
		}
	})

	t.Run("outside the window rejected", func(t *testing.T) {
		if _, _, err := d.MoveKeyframe(clip.ID, "k1", 12, 1); !errors.Is(err, ErrInvalid) {
			t.Errorf("err = %v, want ErrInvalid", err)
		}
	})

	t.Run("missing keyframe is a no-op", func(t *testing.T) {
		if _, applied, err := d.MoveKeyframe(clip.ID, "ghost", 4, 1); applied || err != nil {
			t.Errorf("applied=%v err=%v, want silent no-op", applied, err)
		}
	})
}

func TestRemoveKeyframe(t *testing.T) {
	d, video, _ := newTestDoc(t)
	d, clip := addTestClip(t, d, video.ID, SourceVideo, 0, 10, 10)
	var applied bool
	var err error
	if d, applied, err = d.AddKeyframe(clip.ID, Keyframe{ID: "k1", Property: PropOpacity, Time: 2, Value: 0.2}); err != nil || !applied {
		t.Fatalf("AddKeyframe: applied=%v err=%v", applied, err)
	}

	d2, applied := d.RemoveKeyframe(clip.ID, "k1")
	if !applied || len(d2.KeyframesFor(clip.ID, PropOpacity)) != 0 {
		t.Errorf("RemoveKeyframe left %+v", d2.KeyframesFor(clip.ID, PropOpacity))
	}
	if _, applied := d2.RemoveKeyframe(clip.ID, "k1"); applied {
		t.Errorf("second remove must be a no-op")
	}
}

func TestUpdateKeyframeCurveFields(t *testing.T) {
	d, video, _ := newTestDoc(t)
	d, clip := addTestClip(t, d, video.ID, SourceVideo, 0, 10, 10)
	var applied bool
	var err error
	if d, applied, err = d.AddKeyframe(clip.ID, Keyframe{ID: "k1", Property: PropOpacity, Time: 2, Value: 0.2}); err != nil || !applied {
		t.Fatalf("AddKeyframe: applied=%v err=%v", applied, err)
	}

	bez := EasingBezier
	out := Handle{DT: 1.5, DV: 0}
	d2, applied, err := d.UpdateKeyframe(clip.ID, "k1", KeyframePatch{Easing: &bez, Out: &out})
	if err != nil || !applied {
		t.Fatalf("UpdateKeyframe: applied=%v err=%v", applied, err)
	}
	keys := d2.KeyframesFor(clip.ID, PropOpacity)
	if keys[0].Easing != EasingBezier || keys[0].Out == nil || keys[0].Out.DT != 1.5 {
		t.Errorf("keyframe = %+v, want bezier with out handle 1.5", keys[0])
	}

	// Older revision keeps the original keyframe untouched.
	old := d.KeyframesFor(clip.ID, PropOpacity)
	if old[0].Easing != EasingLinear || old[0].Out != nil {
		t.Errorf("older revision mutated: %+v", old[0])
	}
}
