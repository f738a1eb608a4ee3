package docs

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/agoraflux/pkg/sources"
)

// WriteMarkdown renders a bundle as a Markdown report.
func WriteMarkdown(w io.Writer, b *Bundle) error {
	doc := md.NewMarkdown(w)

	doc.H1("Data Documentation").
		PlainTextf("Generated %s by generator %s.", b.Metadata.GeneratedAt.Format("2006-01-02 15:04:05 MST"), b.Metadata.Version).
		LF().LF()

	doc.BulletList(
		fmt.Sprintf("%s %d", md.Bold("Sources:"), b.Metadata.TotalSources),
		fmt.Sprintf("%s %d", md.Bold("Unique fields:"), b.GlobalSchema.TotalUniqueFields),
		fmt.Sprintf("%s %t", md.Bold("Fusion:"), b.Metadata.IncludesFusion),
	)

	for _, id := range slices.Sorted(maps.Keys(b.Sources)) {
		writeSource(doc, id, b.Sources[id])
	}

	if b.Fusion != nil {
		writeFusion(doc, b.Fusion)
	}

	doc.H2("Transformations")
	if b.TransformationSummary.Total == 0 {
		doc.PlainText("No transformations recorded.").LF()
	} else {
		rows := make([][]string, 0, len(b.TransformationSummary.Unique))
		for _, t := range b.TransformationSummary.Unique {
			rows = append(rows, []string{
				t,
				string(CategoryOf(t)),
				strconv.Itoa(b.TransformationSummary.Frequency[t]),
			})
		}
		doc.Table(md.TableSet{Header: []string{"Transformation", "Category", "Count"}, Rows: rows})
	}

	if len(b.GlobalSchema.CrossSource) > 0 {
		doc.H2("Cross-source Fields")
		items := make([]string, 0, len(b.GlobalSchema.CrossSource))
		for _, name := range b.GlobalSchema.CrossSource {
			f := b.GlobalSchema.Fields[name]
			items = append(items, fmt.Sprintf("%s: %s", md.Code(name), strings.Join(f.Sources, ", ")))
		}
		doc.BulletList(items...)
	}

	return doc.Build()
}

func writeSource(doc *md.Markdown, id sources.ID, s *SourceDoc) {
	doc.H2(DisplayName(id.String()))
	doc.BulletList(
		fmt.Sprintf("%s %s", md.Bold("Data type:"), s.Metadata.DataType),
		fmt.Sprintf("%s %d of %d", md.Bold("Records kept:"), s.Metadata.RecordsCount, s.Metadata.RawRows),
		fmt.Sprintf("%s %.1f (%s)", md.Bold("Quality:"), s.Quality.OverallScore, s.Quality.Level()),
	)
	if len(s.Quality.Issues) > 0 {
		doc.H3("Quality Issues")
		doc.BulletList(s.Quality.Issues...)
	}

	if len(s.Schema.Fields) == 0 {
		doc.PlainText("No fields.").LF()
		return
	}
	rows := make([][]string, 0, len(s.Schema.Fields))
	for _, f := range s.Schema.Fields {
		key := ""
		if f.IsKey {
			key = "yes"
		}
		rows = append(rows, []string{
			md.Code(f.Name),
			string(f.Type),
			fmt.Sprintf("%.1f%%", f.NullPercentage),
			strconv.Itoa(f.UniqueCount),
			key,
			f.Description,
		})
	}
	doc.H3("Fields")
	doc.Table(md.TableSet{
		Header: []string{"Field", "Type", "Null", "Unique", "Key", "Description"},
		Rows:   rows,
	})
}

func writeFusion(doc *md.Markdown, f *FusionDoc) {
	doc.H2("Fusion")
	ids := make([]string, 0, len(f.SourcesInvolved))
	for _, id := range f.SourcesInvolved {
		ids = append(ids, id.String())
	}
	doc.BulletList(
		fmt.Sprintf("%s %s", md.Bold("Recipe:"), f.Metadata.Recipe),
		fmt.Sprintf("%s %s", md.Bold("Strategy:"), f.Strategy),
		fmt.Sprintf("%s %s", md.Bold("Sources:"), strings.Join(ids, ", ")),
		fmt.Sprintf("%s %d", md.Bold("Records merged:"), f.RecordsMerged),
		fmt.Sprintf("%s %d", md.Bold("Conflicts resolved:"), f.ConflictsResolved),
		fmt.Sprintf("%s %.2f%%", md.Bold("Coverage:"), f.Quality.Coverage),
		fmt.Sprintf("%s %.2f", md.Bold("Merge ratio:"), f.Lineage.DataFlow.MergeRatio),
	)
	if f.Metadata.Note != "" {
		doc.Blockquote(f.Metadata.Note)
	}
	doc.PlainText(md.Code(f.Lineage.Chain)).LF()
}
