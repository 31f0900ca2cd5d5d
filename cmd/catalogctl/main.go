// Command catalogctl opera el catálogo desde la terminal: migraciones, importación de CSV y
// mantenimiento de los árboles de categorías.
package main

func main() {
	execute()
}
