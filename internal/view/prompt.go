package view

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/inventorypro/invctl/internal/models"
)

// PromptDraft fills a draft from interactive input. existing seeds the
// prompts when editing; pressing enter keeps the current value. The draft
// keeps the existing id, so submitting it selects update over create.
func PromptDraft(in *bufio.Scanner, out io.Writer, existing models.Item) (models.Item, error) {
	draft := existing

	name, err := promptField(in, out, "Name", existing.Name)
	if err != nil {
		return draft, err
	}
	draft.Name = name

	description, err := promptField(in, out, "Description", existing.Description)
	if err != nil {
		return draft, err
	}
	draft.Description = description

	priceStr, err := promptField(in, out, "Price", existing.Price.String())
	if err != nil {
		return draft, err
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return draft, fmt.Errorf("invalid price %q: %w", priceStr, err)
	}
	draft.Price = price

	quantityStr, err := promptField(in, out, "Quantity", strconv.Itoa(existing.Quantity))
	if err != nil {
		return draft, err
	}
	quantity, err := strconv.Atoi(quantityStr)
	if err != nil {
		return draft, fmt.Errorf("invalid quantity %q: %w", quantityStr, err)
	}
	draft.Quantity = quantity

	return draft, draft.Validate()
}

func promptField(in *bufio.Scanner, out io.Writer, label, current string) (string, error) {
	fmt.Fprintf(out, "%s [%s]: ", label, current)
	if !in.Scan() {
		return "", io.EOF
	}
	text := strings.TrimSpace(in.Text())
	if text == "" {
		return current, nil
	}
	return text, nil
}
