// Package prompt assembles the single request sent to the model for each turn.
package prompt

import (
	"strings"

	"github.com/Protocol-Lattice/lattice-edit/src/workspace"
)

// System tells the model how to shape its reply so reply.Parse can read it.
const System = "Eres un ingeniero de software experto. Modificas o creas UN solo archivo del proyecto por respuesta.\n\n" +
	"**Formato de respuesta (obligatorio):**\n" +
	"1.  Primera línea: `ARCHIVO: ruta/relativa/al/archivo` (ruta desde la raíz del proyecto).\n" +
	"2.  Después, UN bloque de código markdown (```) con el contenido COMPLETO del archivo. Sin fragmentos, sin diffs, sin \"...\".\n" +
	"3.  Al final, `EXPLICACIÓN:` seguido de una breve explicación del cambio.\n\n" +
	"**Ejemplo:**\n\n" +
	"ARCHIVO: math/primes.go\n" +
	"```go\n" +
	"package math\n\n" +
	"func IsPrime(n int) bool {\n" +
	"	if n <= 1 {\n" +
	"		return false\n" +
	"	}\n" +
	"	for i := 2; i*i <= n; i++ {\n" +
	"		if n%i == 0 {\n" +
	"			return false\n" +
	"		}\n" +
	"	}\n" +
	"	return true\n" +
	"}\n" +
	"```\n" +
	"EXPLICACIÓN: Añade IsPrime al paquete math.\n"

// Build joins the instructions, the project listing, the file contents and the
// user's request into one prompt.
func Build(ctx workspace.Context, request string) string {
	var b strings.Builder
	b.WriteString(System)
	b.WriteString("\n## Estructura del proyecto\n")
	b.WriteString(ctx.Tree())
	b.WriteString("\n## Contenido del proyecto\n")
	b.WriteString(ctx.Text)
	b.WriteString("\n## Petición\n")
	b.WriteString(strings.TrimSpace(request))
	b.WriteString("\n")
	return b.String()
}
