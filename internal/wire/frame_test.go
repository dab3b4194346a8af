// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package wire

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

// TestRoundTrip exercises law L1: every control packet round-trips through
// serialize -> deserialize unchanged.
func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		tag  Tag
		msg  any
		dst  any
	}{
		{"RequestToConnect", TagRequestToConnect, RequestToConnect{Version: GameVersion{1, 2, 3}}, &RequestToConnect{}},
		{"WrongGameVersion", TagWrongGameVersion, WrongGameVersion{CurrentVersion: GameVersion{1, 2, 3}}, &WrongGameVersion{}},
		{"GameServerAddress", TagGameServerAddress, GameServerAddress{IPv4: [4]byte{127, 0, 0, 1}, Port: 40000}, &GameServerAddress{}},
		{"NoFreeServers", TagNoFreeServers, NoFreeServers{}, &NoFreeServers{}},
		{"MatchServerMessage", TagServerStarted, MatchServerMessage{ServerIndex: 40000}, &MatchServerMessage{}},
		{"JoinTheMatch", TagJoinTheMatch, JoinTheMatch{
			NowMs: 1000, YourTeam: TeamBlue,
			RedFlag:  FlagStatus{Kind: FlagOnBase},
			BlueFlag: FlagStatus{Kind: FlagCaptured, Carrier: uuid.New()},
			Bonus:    BonusCollected, RedScore: 2, BlueScore: 1,
		}, &JoinTheMatch{}},
		{"DirectMessage", TagDirectMessage, DirectMessage{ToID: uuid.New(), Payload: []byte{1, 2, 3}}, &DirectMessage{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := Encode(tc.tag, tc.msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			gotTag, err := Unmarshal(frame, tc.dst)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}

			if gotTag != tc.tag {
				t.Fatalf("tag = %v, want %v", gotTag, tc.tag)
			}

			if got := reflect.ValueOf(tc.dst).Elem().Interface(); !reflect.DeepEqual(got, tc.msg) {
				t.Fatalf("decoded = %+v, want %+v", got, tc.msg)
			}
		})
	}
}

func TestDecodeShortFrame(t *testing.T) {
	if _, _, err := Decode([]byte{1, 2}); err != ErrShortFrame {
		t.Fatalf("err = %v, want ErrShortFrame", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	frame, err := Encode(TagNoFreeServers, NoFreeServers{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Lie about the body length.
	frame[1] = 0xFF

	if _, _, err := Decode(frame); err != ErrTruncated {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestGameVersionEqual(t *testing.T) {
	a := GameVersion{1, 2, 3}
	b := GameVersion{1, 2, 3}
	c := GameVersion{1, 2, 4}

	if !a.Equal(b) {
		t.Fatal("expected equal versions to compare equal")
	}

	if a.Equal(c) {
		t.Fatal("expected differing versions to compare unequal")
	}
}
