package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/researchatlas/atlas/internal/document"
	"github.com/researchatlas/atlas/internal/llm"
)

// ErrEmptyQuery is returned for blank questions.
var ErrEmptyQuery = errors.New("query is empty")

// DefaultDomainName is the research area named in the system prompt.
const DefaultDomainName = "Physical Sciences"

// DefaultPromptTemplate holds the fixed answering instructions.
// {domain} and {context} are replaced before each call.
const DefaultPromptTemplate = `You are an assistant for question-answering tasks about {domain} research data. ` +
	`Use the following pieces of retrieved context to answer the question. ` +
	`When asked about 'top' or 'most' items, analyze the numbers in the context (like work counts) to determine rankings. ` +
	`If the context contains multiple items with counts, identify which has the highest number. ` +
	`If you don't know the answer based on the context provided, just say that you don't know. ` +
	`Keep your answer concise and based only on the information provided in the context. ` +
	`Do not make up information that is not in the context.

Context:
{context}`

// DocumentRetriever returns the documents relevant to a question.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string, opts ...RetrieveOption) ([]document.Document, error)
}

// QueryResult is the outcome of one question.
type QueryResult struct {
	Query     string              `json:"query"`
	Answer    string              `json:"answer"`
	Model     string              `json:"model"`
	Documents []document.Document `json:"documents"`
}

// Answerer retrieves context for a question and asks the generator to answer it.
type Answerer struct {
	retriever DocumentRetriever
	generator llm.Generator
	template  string
	domain    string
}

// AnswererOption configures an Answerer.
type AnswererOption func(*Answerer)

// WithDomainName sets the research area named in the instructions.
func WithDomainName(name string) AnswererOption {
	return func(a *Answerer) {
		if name != "" {
			a.domain = name
		}
	}
}

// WithPromptTemplate replaces the instructions. The template should contain {context}.
func WithPromptTemplate(tmpl string) AnswererOption {
	return func(a *Answerer) {
		if tmpl != "" {
			a.template = tmpl
		}
	}
}

// NewAnswerer creates an Answerer.
func NewAnswerer(retriever DocumentRetriever, generator llm.Generator, opts ...AnswererOption) *Answerer {
	a := &Answerer{
		retriever: retriever,
		generator: generator,
		template:  DefaultPromptTemplate,
		domain:    DefaultDomainName,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SystemPrompt renders the instructions around the retrieved context.
func (a *Answerer) SystemPrompt(retrieved string) string {
	return strings.NewReplacer("{domain}", a.domain, "{context}", retrieved).Replace(a.template)
}

// Answer runs one independent question: retrieve, build the prompt, generate.
func (a *Answerer) Answer(ctx context.Context, query string, opts ...RetrieveOption) (*QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	docs, err := a.retriever.Retrieve(ctx, query, opts...)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	answer, err := a.generator.Generate(ctx, a.SystemPrompt(FormatContext(docs)), query)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &QueryResult{
		Query:     query,
		Answer:    answer,
		Model:     a.generator.ModelName(),
		Documents: docs,
	}, nil
}
