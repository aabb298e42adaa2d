package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"planneat/internal/mealplan"
	"planneat/internal/recipe"
	"planneat/internal/shopping"

	"github.com/jung-kurt/gofpdf"
)

const fontName = "Arial"

// PDF renders the week plan followed by its shopping list.
func PDF(w io.Writer, week mealplan.Week, items []shopping.Item) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("PlannEat Meal Plan", true)
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 16)
	pdf.Cell(0, 10, tr("PlannEat Meal Plan for Week of "+week.Start().Format(weekHeaderLayout)))
	pdf.Ln(14)

	for _, day := range week {
		drawDay(pdf, tr, day)
	}

	drawShoppingList(pdf, tr, items)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func drawDay(pdf *gofpdf.Fpdf, tr func(string) string, day mealplan.Day) {
	pdf.SetFont(fontName, "B", 12)
	pdf.Cell(0, 8, tr(day.Date.Format(dayHeaderLayout)))
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 10)
	for _, slot := range mealplan.Slots {
		pdf.CellFormat(30, 6, slot.Title(), "1", 0, "L", false, 0, "")
		name, details := notPlanned, ""
		if meal, ok := day.Meals[slot]; ok {
			name = meal.Name
			details = mealDetails(meal)
		}
		pdf.CellFormat(110, 6, tr(recipe.Truncate(name, 60)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, details, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func mealDetails(meal recipe.ClassifiedRecipe) string {
	return fmt.Sprintf("%d kcal, %s", meal.EstimatedCalories, recipe.FormatCookingTime(meal.EstimatedPrepTime))
}

func drawShoppingList(pdf *gofpdf.Fpdf, tr func(string) string, items []shopping.Item) {
	pdf.AddPage()
	pdf.SetFont(fontName, "B", 14)
	pdf.Cell(0, 8, "Shopping List")
	pdf.Ln(10)

	pdf.SetFont(fontName, "", 10)
	if len(items) == 0 {
		pdf.Cell(0, 6, "Nothing planned this week.")
		pdf.Ln(6)
		return
	}

	pdf.SetFont(fontName, "B", 10)
	pdf.CellFormat(90, 6, "Ingredient", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Measure", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Qty", "1", 1, "C", false, 0, "")

	pdf.SetFont(fontName, "", 10)
	for _, it := range items {
		pdf.CellFormat(90, 6, tr(it.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 6, tr(it.Measure), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, strconv.Itoa(it.Quantity), "1", 1, "C", false, 0, "")
	}
}
