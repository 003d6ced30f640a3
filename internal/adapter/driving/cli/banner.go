package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/diillson/pnad-income-go/pkg/version"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner(versionStr string) {
	banner := `
        ____  _   _    _    ____    ___
       |  _ \| \ | |  / \  |  _ \  |_ _|_ __   ___ ___  _ __ ___   ___
       | |_) |  \| | / _ \ | | | |  | || '_ \ / __/ _ \| '_ ' _ \ / _ \
       |  __/| |\  |/ ___ \| |_| |  | || | | | (_| (_) | | | | | |  __/
       |_|   |_| \_/_/   \_\____/  |___|_| |_|\___\___/|_| |_| |_|\___|
        `
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(green(banner))

	// Obtem a string formatada da versão através do pacote version
	formattedVersion := version.FormatVersion()
	fmt.Println(blue(fmt.Sprintf("PNAD Contínua labor income by sector (v%s)", formattedVersion)))
}

// checkLatestVersion verifica se uma versão mais recente está disponível.
func checkLatestVersion(currentVersion string) {
	version.CheckLatestVersion(currentVersion)
}
