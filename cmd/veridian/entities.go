package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veridian-labs/veridian/internal/cli"
	"github.com/veridian-labs/veridian/internal/model"
)

func entitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Inspect resolved entity clusters",
		RunE:  runEntities,
	}

	cmd.Flags().String("cluster", "", "show a single cluster by id")

	return cmd
}

func runEntities(cmd *cobra.Command, _ []string) error {
	clusterID, _ := cmd.Flags().GetString("cluster")

	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if clusterID != "" {
		entity, err := store.GetEntity(ctx, clusterID)
		if err != nil {
			return err
		}
		if entity == nil {
			return fmt.Errorf("cluster %q not found", clusterID)
		}
		printEntity(*entity)
		return nil
	}

	entities, err := store.GetAllEntities(ctx)
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No resolved entities yet."))
		return nil
	}

	for _, entity := range entities {
		fmt.Printf("%s  members=%d  name=%q\n",
			entity.ClusterID, len(entity.MemberHashes), entity.Attributes[model.FieldName])
	}
	fmt.Printf("\n%d clusters\n", len(entities))
	return nil
}

func printEntity(entity model.ResolvedEntity) {
	fmt.Println(cli.TitleStyle.Render("Cluster " + entity.ClusterID))
	fmt.Println("  Attributes:")
	for key, value := range entity.Attributes {
		fmt.Printf("    %-18s %s\n", key+":", value)
	}
	fmt.Println("  Members:")
	for _, hash := range entity.MemberHashes {
		fmt.Printf("    %s\n", cli.SubtleStyle.Render(hash))
	}
}
