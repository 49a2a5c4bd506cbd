package dto

import "time"

type CreateSessionRequest struct {
	Template string `json:"template" example:"llama_3"`
}

type MessageResponse struct {
	Role    string `json:"role" example:"user"`
	Content string `json:"content" example:"What happens in the video?"`
}

type SessionResponse struct {
	ID           string            `json:"id" example:"sess_3f2a9c0d41b84e6f9a1c2d3e4f5a6b7c"`
	Template     string            `json:"template" example:"llama_3"`
	Model        string            `json:"model" example:"llava_llama3_8b_video"`
	ClipID       string            `json:"clip_id,omitempty" example:"0192d6a4-7c1e-7b3a-9f00-5e2d1c4b3a21"`
	Frames       int               `json:"frames" example:"30"`
	Turns        int               `json:"turns" example:"2"`
	Status       string            `json:"status" example:"ready" enums:"idle,ready"`
	Messages     []MessageResponse `json:"messages"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActiveAt time.Time         `json:"last_active_at"`
}

type VideoResponse struct {
	SessionID string `json:"session_id" example:"sess_3f2a9c0d41b84e6f9a1c2d3e4f5a6b7c"`
	ClipID    string `json:"clip_id" example:"0192d6a4-7c1e-7b3a-9f00-5e2d1c4b3a21"`
	Frames    int    `json:"frames" example:"30"`
}

type AskRequest struct {
	Query string `json:"query" example:"What happens in the video?"`
}

type TurnResponse struct {
	Seq       int       `json:"seq" example:"1"`
	Query     string    `json:"query" example:"What happens in the video?"`
	Reply     string    `json:"reply" example:"A dog chases a ball across the lawn."`
	Frames    int       `json:"frames" example:"30"`
	ClipID    string    `json:"clip_id,omitempty" example:"0192d6a4-7c1e-7b3a-9f00-5e2d1c4b3a21"`
	Model     string    `json:"model" example:"llava_llama3_8b_video"`
	LatencyMs int64     `json:"latency_ms" example:"1840"`
	CreatedAt time.Time `json:"created_at"`
}

type AskResponse struct {
	Reply string       `json:"reply" example:"A dog chases a ball across the lawn."`
	Turn  TurnResponse `json:"turn"`
}

type TranscriptResponse struct {
	SessionID string         `json:"session_id" example:"sess_3f2a9c0d41b84e6f9a1c2d3e4f5a6b7c"`
	Turns     []TurnResponse `json:"turns"`
}

type TemplateResponse struct {
	Name     string    `json:"name" example:"llama_3"`
	System   string    `json:"system"`
	Roles    [2]string `json:"roles"`
	SepStyle string    `json:"sep_style" example:"llama_3" enums:"single,two,mpt,plain,llama_2,llama_3"`
	Sep      string    `json:"sep" example:"<|eot_id|>"`
	Sep2     string    `json:"sep2,omitempty"`
	Stop     string    `json:"stop" example:"<|eot_id|>"`
}

type TemplateListResponse struct {
	Default   string             `json:"default" example:"llama_3"`
	Templates []TemplateResponse `json:"templates"`
}
