package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glasspane/glasspane/internal/surface"
)

func TestDecodeCreateWindow(t *testing.T) {
	req, err := Decode([]byte(`{"type":"CreateWindow","payload":{"title":"Term","width":640,"height":480}}`))
	require.NoError(t, err)

	create, ok := req.(CreateWindow)
	require.True(t, ok)
	assert.Equal(t, "Term", create.Title)
	assert.Equal(t, 640, create.Width)
	assert.Equal(t, 480, create.Height)
}

func TestDecodeDrawToSurface(t *testing.T) {
	pixels := EncodePixels([]byte{1, 2, 3, 4})
	raw, err := json.Marshal(map[string]any{
		"type": "DrawToSurface",
		"payload": map[string]any{
			"window_id": 7, "x": 1, "y": 2, "width": 1, "height": 1,
			"pixels": pixels,
		},
	})
	require.NoError(t, err)

	req, err := Decode(raw)
	require.NoError(t, err)

	draw, ok := req.(DrawToSurface)
	require.True(t, ok)
	assert.Equal(t, uint32(7), draw.WindowID)
	assert.Equal(t, 1, draw.X)
	assert.Equal(t, 2, draw.Y)

	pix, err := draw.DecodePixels()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, pix)
}

func TestDecodePixelsRejectsBadBase64(t *testing.T) {
	draw := DrawToSurface{Pixels: "not base64!!!"}
	_, err := draw.DecodePixels()
	require.Error(t, err)
}

func TestDecodeGetWindowsIgnoresPayload(t *testing.T) {
	for _, raw := range []string{
		`{"type":"GetWindows"}`,
		`{"type":"GetWindows","payload":{}}`,
		`{"type":"GetWindows","payload":{"junk":true}}`,
	} {
		req, err := Decode([]byte(raw))
		require.NoError(t, err, raw)
		assert.IsType(t, GetWindows{}, req)
	}
}

func TestDecodeInputEvents(t *testing.T) {
	req, err := Decode([]byte(`{"type":"MouseEvent","payload":{"window_id":1,"x":10,"y":20,"button":0,"event_type":"MouseDown"}}`))
	require.NoError(t, err)
	mouse, ok := req.(MouseEvent)
	require.True(t, ok)
	assert.Equal(t, "MouseDown", mouse.EventType)

	req, err = Decode([]byte(`{"type":"KeyEvent","payload":{"window_id":1,"keycode":65,"event_type":"KeyUp"}}`))
	require.NoError(t, err)
	key, ok := req.(KeyEvent)
	require.True(t, ok)
	assert.Equal(t, 65, key.Keycode)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"Ping"}`))
	require.Error(t, err)

	var unknown *UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Ping", unknown.Type)
	assert.EqualError(t, err, "Unknown request type: Ping")
}

func TestDecodeInvalidJSON(t *testing.T) {
	for _, raw := range []string{"not json", "{", `"just a string"`} {
		_, err := Decode([]byte(raw))
		require.ErrorIs(t, err, ErrInvalidJSON, raw)
		assert.EqualError(t, err, "Invalid JSON")
	}
}

func TestDecodeBadPayloadShape(t *testing.T) {
	_, err := Decode([]byte(`{"type":"CreateWindow","payload":{"title":"x","width":"wide"}}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidJSON)

	_, err = Decode([]byte(`{"type":"CloseWindow"}`))
	require.Error(t, err)
}

func TestResponseWireShapes(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{
			name: "success",
			resp: NewSuccess(3),
			want: `{"type":"Success","payload":{"window_id":3}}`,
		},
		{
			name: "error",
			resp: NewError("Window 9 not found"),
			want: `{"type":"Error","payload":{"message":"Window 9 not found"}}`,
		},
		{
			name: "windows",
			resp: NewWindows([]surface.WindowInfo{{ID: 1, Title: "A", Width: 4, Height: 4}}),
			want: `{"type":"Windows","payload":[{"id":1,"title":"A","x":0,"y":0,"width":4,"height":4}]}`,
		},
		{
			name: "empty windows is an array",
			resp: NewWindows(nil),
			want: `{"type":"Windows","payload":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.resp.Marshal()
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestRequestRoundTrip(t *testing.T) {
	data, err := EncodeRequest(CreateWindow{Title: "A", Width: 4, Height: 4})
	require.NoError(t, err)

	req, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, CreateWindow{Title: "A", Width: 4, Height: 4}, req)
}

func TestResponseEnvelopeHelpers(t *testing.T) {
	env, err := DecodeResponse([]byte(`{"type":"Success","payload":{"window_id":5}}`))
	require.NoError(t, err)
	p, err := env.Success()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), p.WindowID)
	_, isErr := env.ErrorMessage()
	assert.False(t, isErr)

	env, err = DecodeResponse([]byte(`{"type":"Error","payload":{"message":"boom"}}`))
	require.NoError(t, err)
	msg, isErr := env.ErrorMessage()
	assert.True(t, isErr)
	assert.Equal(t, "boom", msg)
	_, err = env.Success()
	require.Error(t, err)

	env, err = DecodeResponse([]byte(`{"type":"Windows","payload":[{"id":1,"title":"A","x":0,"y":0,"width":4,"height":4}]}`))
	require.NoError(t, err)
	infos, err := env.Windows()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "A", infos[0].Title)
}
